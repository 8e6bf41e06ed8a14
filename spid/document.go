package spid

import (
	"encoding/xml"
	"time"

	"github.com/pkg/errors"
)

// NameIDFormatEntity is the only Issuer format SPID admits, for both
// responses and assertions.
const NameIDFormatEntity = "urn:oasis:names:tc:SAML:2.0:nameid-format:entity"

// Instant layouts accepted by SPID: UTC with or without milliseconds.
const (
	instantLayout       = "2006-01-02T15:04:05Z"
	instantLayoutMillis = "2006-01-02T15:04:05.000Z"
)

// ParseInstant parses a SAML instant in one of the two accepted layouts.
func ParseInstant(value string) (time.Time, error) {
	if t, err := time.Parse(instantLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(instantLayoutMillis, value)
	if err != nil {
		return time.Time{}, errors.Errorf("malformed instant %q", value)
	}
	return t, nil
}

// Response is a parsed samlp:Response. Instants are kept as raw attribute
// strings: their format is itself subject to validation rules, so parsing is
// deferred to the rule chain. The document is read-only input, never mutated.
type Response struct {
	XMLName      xml.Name   `xml:"urn:oasis:names:tc:SAML:2.0:protocol Response"`
	ID           string     `xml:"ID,attr"`
	Version      string     `xml:"Version,attr"`
	IssueInstant string     `xml:"IssueInstant,attr"`
	InResponseTo string     `xml:"InResponseTo,attr"`
	Destination  string     `xml:"Destination,attr"`
	Issuer       *Issuer    `xml:"urn:oasis:names:tc:SAML:2.0:assertion Issuer"`
	Status       Status     `xml:"Status"`
	Assertion    *Assertion `xml:"urn:oasis:names:tc:SAML:2.0:assertion Assertion"`
}

type Status struct {
	StatusCode StatusCode `xml:"StatusCode"`
}

type StatusCode struct {
	Value string `xml:"Value,attr"`
}

type Issuer struct {
	Format string `xml:"Format,attr"`
	Value  string `xml:",chardata"`
}

// Assertion is a parsed saml:Assertion.
type Assertion struct {
	ID              string           `xml:"ID,attr"`
	Version         string           `xml:"Version,attr"`
	IssueInstant    string           `xml:"IssueInstant,attr"`
	Issuer          *Issuer          `xml:"Issuer"`
	Signature       *Signature       `xml:"http://www.w3.org/2000/09/xmldsig# Signature"`
	Subject         *Subject         `xml:"Subject"`
	Conditions      *Conditions      `xml:"Conditions"`
	AuthnStatements []AuthnStatement `xml:"AuthnStatement"`
}

// Signature only records presence; cryptographic validity is established by
// the underlying SAML stack before the rule chains run.
type Signature struct {
	XMLName xml.Name
}

type Subject struct {
	NameID               *NameID               `xml:"NameID"`
	SubjectConfirmations []SubjectConfirmation `xml:"SubjectConfirmation"`
}

type NameID struct {
	Format        string `xml:"Format,attr"`
	NameQualifier string `xml:"NameQualifier,attr"`
	Value         string `xml:",chardata"`
}

type SubjectConfirmation struct {
	Method string                   `xml:"Method,attr"`
	Data   *SubjectConfirmationData `xml:"SubjectConfirmationData"`
}

type SubjectConfirmationData struct {
	Recipient    string `xml:"Recipient,attr"`
	InResponseTo string `xml:"InResponseTo,attr"`
	NotOnOrAfter string `xml:"NotOnOrAfter,attr"`
}

type Conditions struct {
	NotBefore            string                `xml:"NotBefore,attr"`
	NotOnOrAfter         string                `xml:"NotOnOrAfter,attr"`
	AudienceRestrictions []AudienceRestriction `xml:"AudienceRestriction"`
}

type AudienceRestriction struct {
	Audience string `xml:"Audience"`
}

type AuthnStatement struct {
	AuthnInstant string       `xml:"AuthnInstant,attr"`
	AuthnContext AuthnContext `xml:"AuthnContext"`
}

type AuthnContext struct {
	ClassRef string `xml:"AuthnContextClassRef"`
}

// ParseResponse decodes a raw (already base64-decoded) samlp:Response
// document.
func ParseResponse(raw []byte) (*Response, error) {
	var resp Response
	if err := xml.Unmarshal(raw, &resp); err != nil {
		return nil, errors.Wrap(err, "[spid.ParseResponse] malformed response document")
	}
	return &resp, nil
}

// ObtainedACR returns the authentication context asserted by the response,
// if any.
func (r *Response) ObtainedACR() (ACR, error) {
	if r.Assertion == nil || len(r.Assertion.AuthnStatements) == 0 {
		return "", errors.New("response carries no authentication statement")
	}
	return ParseACR(r.Assertion.AuthnStatements[0].AuthnContext.ClassRef)
}
