// Package pricing is the single source of truth for the send-option price
// table. Both the display path and the charge path import it, so the amount
// shown to the user and the amount captured by the provider cannot diverge.
package pricing

import (
	"errors"

	"civicpost/internal/models"
)

var ErrUnknownSendOption = errors.New("unknown send option")

type Tier struct {
	AmountCents int64
	Recipients  int
	Senators    int // max senators included in the fan-out
}

var tiers = map[models.SendOption]Tier{
	models.SendSingle: {AmountCents: 500, Recipients: 1, Senators: 0},
	models.SendDouble: {AmountCents: 1000, Recipients: 2, Senators: 1},
	models.SendTriple: {AmountCents: 1200, Recipients: 3, Senators: 2}, // bundle discount
}

func Lookup(opt models.SendOption) (Tier, error) {
	t, ok := tiers[opt]
	if !ok {
		return Tier{}, ErrUnknownSendOption
	}
	return t, nil
}

func AmountCents(opt models.SendOption) (int64, error) {
	t, err := Lookup(opt)
	if err != nil {
		return 0, err
	}
	return t.AmountCents, nil
}

// SenatorLimit returns how many senators the option pays for. Unknown
// options get zero so a bad payload can never widen the fan-out.
func SenatorLimit(opt models.SendOption) int {
	t, ok := tiers[opt]
	if !ok {
		return 0
	}
	return t.Senators
}
