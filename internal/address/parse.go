// Package address turns the freeform sender address the user typed into the
// structured lines the fulfillment vendor wants.
package address

import (
	"regexp"
	"strings"

	"civicpost/internal/models"
)

var stateZipRe = regexp.MustCompile(`^([A-Za-z]{2})\s+(\d{5})(?:-\d{4})?$`)

// Parse splits a freeform address on commas, expecting either
// "street, city, ST zip" or "street, city, ST, zip". Anything else is
// ambiguous and the previously-known structured address wins.
func Parse(freeform string, known models.Address) models.Address {
	parts := strings.Split(freeform, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch len(parts) {
	case 3:
		if m := stateZipRe.FindStringSubmatch(parts[2]); m != nil {
			return models.Address{
				Street: parts[0],
				City:   parts[1],
				State:  strings.ToUpper(m[1]),
				Zip:    m[2],
			}
		}
	case 4:
		state := strings.ToUpper(parts[2])
		zip := parts[3]
		if len(state) == 2 && isZip(zip) {
			return models.Address{Street: parts[0], City: parts[1], State: state, Zip: zip}
		}
	}

	return known
}

var zipRe = regexp.MustCompile(`^\d{5}$`)

func isZip(s string) bool { return zipRe.MatchString(s) }

// ValidZip reports whether s is a well-formed 5-digit ZIP code.
func ValidZip(s string) bool { return isZip(s) }
