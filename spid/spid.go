// Package spid implements the SPID profile of SAML 2.0: the numbered
// compliance rules applied to responses and assertions, the authentication
// context levels, and the attribute catalog published in service provider
// metadata.
package spid

import "sync"

// Attribute is a SPID attribute name as defined by the AgID technical rules.
type Attribute string

const (
	AttributeSpidCode       Attribute = "spidCode"
	AttributeName           Attribute = "name"
	AttributeFamilyName     Attribute = "familyName"
	AttributeFiscalNumber   Attribute = "fiscalNumber"
	AttributeEmail          Attribute = "email"
	AttributeDateOfBirth    Attribute = "dateOfBirth"
	AttributePlaceOfBirth   Attribute = "placeOfBirth"
	AttributeGender         Attribute = "gender"
	AttributeMobilePhone    Attribute = "mobilePhone"
	AttributeAddress        Attribute = "address"
	AttributeDigitalAddress Attribute = "digitalAddress"
	AttributeCompanyName    Attribute = "companyName"
	AttributeIVACode        Attribute = "ivaCode"
	AttributeIDCard         Attribute = "idCard"
)

var (
	initOnce       sync.Once
	attributeNames map[Attribute]bool
)

// Initialize prepares package-level state: the catalog of attribute names a
// service provider may request. Safe to call more than once; only the first
// call does work.
func Initialize() {
	initOnce.Do(func() {
		attributeNames = map[Attribute]bool{
			AttributeSpidCode:       true,
			AttributeName:           true,
			AttributeFamilyName:     true,
			AttributeFiscalNumber:   true,
			AttributeEmail:          true,
			AttributeDateOfBirth:    true,
			AttributePlaceOfBirth:   true,
			AttributeGender:         true,
			AttributeMobilePhone:    true,
			AttributeAddress:        true,
			AttributeDigitalAddress: true,
			AttributeCompanyName:    true,
			AttributeIVACode:        true,
			AttributeIDCard:         true,
		}
	})
}

// KnownAttribute reports whether the name is part of the SPID attribute
// catalog.
func KnownAttribute(name Attribute) bool {
	Initialize()
	return attributeNames[name]
}
