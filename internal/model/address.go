package model

import (
	"strings"
	"time"
)

// Address is a saved address book entry owned by the backend.
type Address struct {
	ID        string    `json:"id"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Zip       string    `json:"zip"`
	Country   string    `json:"country"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Shipping returns the address as an order shipping snapshot.
func (a Address) Shipping() ShippingAddress {
	return ShippingAddress{Street: a.Street, City: a.City, State: a.State, Zip: a.Zip, Country: a.Country}
}

// ShippingAddress is the address snapshot stored on an order.
type ShippingAddress struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Missing returns the names of the empty required fields.
func (s ShippingAddress) Missing() []string {
	var out []string
	for _, f := range []struct{ name, v string }{
		{"street", s.Street}, {"city", s.City}, {"state", s.State}, {"zip", s.Zip}, {"country", s.Country},
	} {
		if strings.TrimSpace(f.v) == "" {
			out = append(out, f.name)
		}
	}
	return out
}
