// model/listing.go
package model

import "strings"

type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// String renders "street, city", skipping empty parts.
func (a Address) String() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{a.Street, a.City} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Listing struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"owner"`
	NightlyPrice float64 `json:"price"`
	Title        string  `json:"title"`
	Address      Address `json:"address"`
}
