package models

import "time"

// SendOption is the user's choice of how many elected officials receive
// the postcard. It drives both the price tier and the senator fan-out cap.
type SendOption string

const (
	SendSingle SendOption = "single"
	SendDouble SendOption = "double"
	SendTriple SendOption = "triple"
)

type Chamber string

const (
	ChamberHouse  Chamber = "house"
	ChamberSenate Chamber = "senate"
)

// Address is a structured postal address. Zip is always the 5-digit form.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

func (a Address) Empty() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.Zip == ""
}

// Recipient is an elected official sourced from the lookup service.
// Read-only within the checkout flow.
type Recipient struct {
	Name          string  `json:"name"`
	Title         string  `json:"title"`
	OfficialID    string  `json:"official_id"`
	Chamber       Chamber `json:"chamber"`
	OfficeAddress Address `json:"office_address"`
}

// Order is the full postcard order accumulated by the wizard. Once it has
// been attached to a payment session it is treated as immutable.
type Order struct {
	Representative *Recipient  `json:"representative"`
	Senators       []Recipient `json:"senators,omitempty"`

	Message string `json:"message"`

	SenderName    string  `json:"sender_name"`
	SenderAddress string  `json:"sender_address"` // freeform, as typed
	Sender        Address `json:"sender"`         // structured, from autocomplete

	SendOption SendOption `json:"send_option"`
	Email      string     `json:"email"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}
