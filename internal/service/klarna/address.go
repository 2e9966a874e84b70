package klarna

import (
	"github.com/dalecarliacrew/klarna-checkout-bridge/internal/saleor"
)

// Address is the provider's address schema. Fields are elided from the wire
// payload when empty; field-format validation is the provider's job.
type Address struct {
	GivenName      string `json:"given_name,omitempty"`
	FamilyName     string `json:"family_name,omitempty"`
	Email          string `json:"email,omitempty"`
	StreetAddress  string `json:"street_address,omitempty"`
	StreetAddress2 string `json:"street_address2,omitempty"`
	PostalCode     string `json:"postal_code,omitempty"`
	City           string `json:"city,omitempty"`
	Region         string `json:"region,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Country        string `json:"country,omitempty"`
}

// PrepareRequestAddress maps a platform address plus the buyer email to the
// provider's address schema. An absent source address yields nil, never a
// zero-filled address.
func PrepareRequestAddress(address *saleor.Address, email string) *Address {
	if address == nil {
		return nil
	}

	return &Address{
		GivenName:      address.FirstName,
		FamilyName:     address.LastName,
		Email:          email,
		StreetAddress:  address.StreetAddress1,
		StreetAddress2: address.StreetAddress2,
		PostalCode:     address.PostalCode,
		City:           address.City,
		Region:         address.CountryArea,
		Phone:          address.Phone,
		Country:        address.Country.Code,
	}
}
