package providers

import (
	"crypto/x509"

	"github.com/beevik/etree"
	"github.com/pkg/errors"
	dsig "github.com/russellhaering/goxmldsig"
)

// VerifyResponseSignature checks the enveloped XML signatures of a SAML
// response document against the identity provider's signing certificates.
// Every signature present must verify; whether a signature is required at
// all (and where) is judged by the SPID compliance chains afterwards.
func VerifyResponseSignature(raw []byte, certs []*x509.Certificate) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return errors.Wrap(err, "[VerifyResponseSignature] parse document")
	}
	root := doc.Root()
	if root == nil {
		return errors.New("[VerifyResponseSignature] empty document")
	}

	ctx := dsig.NewDefaultValidationContext(&dsig.MemoryX509CertificateStore{Roots: certs})

	if hasEnvelopedSignature(root) {
		if _, err := ctx.Validate(root); err != nil {
			return errors.Wrap(err, "[VerifyResponseSignature] response signature")
		}
	}
	for _, child := range root.ChildElements() {
		if child.Tag != "Assertion" || !hasEnvelopedSignature(child) {
			continue
		}
		if _, err := ctx.Validate(child); err != nil {
			return errors.Wrap(err, "[VerifyResponseSignature] assertion signature")
		}
	}
	return nil
}

// hasEnvelopedSignature reports whether the element carries a ds:Signature
// as a direct child. Signatures nested deeper belong to another element.
func hasEnvelopedSignature(el *etree.Element) bool {
	for _, child := range el.ChildElements() {
		if child.Tag == "Signature" {
			return true
		}
	}
	return false
}
