package providers

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"strings"

	"github.com/crewjam/saml"
	"github.com/pkg/errors"
)

// IdPInfo is the subset of upstream identity provider metadata the engine
// needs: where to send authentication requests and which certificates sign
// the responses coming back.
type IdPInfo struct {
	EntityID     string
	SSOURL       string
	SigningCerts []*x509.Certificate
}

// ParseIdPMetadata parses raw identity provider metadata XML.
func ParseIdPMetadata(raw string) (*saml.EntityDescriptor, error) {
	var descriptor saml.EntityDescriptor
	if err := xml.Unmarshal([]byte(raw), &descriptor); err != nil {
		return nil, errors.Wrap(err, "[ParseIdPMetadata] unmarshal")
	}
	return &descriptor, nil
}

// ResolveIdP extracts the SSO endpoint and signing certificates from a
// relying party's configured identity provider metadata.
func ResolveIdP(rp *RelyingParty) (*IdPInfo, error) {
	if rp.IdPMetadataXML == "" {
		return nil, errors.Errorf("[ResolveIdP] registration %s has no identity provider metadata", rp.RegistrationID)
	}

	descriptor, err := ParseIdPMetadata(rp.IdPMetadataXML)
	if err != nil {
		return nil, err
	}
	if len(descriptor.IDPSSODescriptors) == 0 {
		return nil, errors.Errorf("[ResolveIdP] metadata for %s carries no IDPSSODescriptor", descriptor.EntityID)
	}

	idp := descriptor.IDPSSODescriptors[0]

	info := &IdPInfo{EntityID: descriptor.EntityID}
	for _, endpoint := range idp.SingleSignOnServices {
		if endpoint.Binding == bindingHTTPRedirect {
			info.SSOURL = endpoint.Location
			break
		}
		if info.SSOURL == "" {
			info.SSOURL = endpoint.Location
		}
	}
	if info.SSOURL == "" {
		return nil, errors.Errorf("[ResolveIdP] metadata for %s carries no SingleSignOnService", descriptor.EntityID)
	}

	for _, keyDescriptor := range idp.KeyDescriptors {
		if keyDescriptor.Use != "" && keyDescriptor.Use != "signing" {
			continue
		}
		for _, x509Cert := range keyDescriptor.KeyInfo.X509Data.X509Certificates {
			cert, err := parseCertificate(x509Cert.Data)
			if err != nil {
				return nil, errors.Wrapf(err, "[ResolveIdP] certificate in metadata for %s", descriptor.EntityID)
			}
			info.SigningCerts = append(info.SigningCerts, cert)
		}
	}
	if len(info.SigningCerts) == 0 {
		return nil, errors.Errorf("[ResolveIdP] metadata for %s carries no signing certificate", descriptor.EntityID)
	}

	return info, nil
}

func parseCertificate(data string) (*x509.Certificate, error) {
	cleaned := strings.Join(strings.Fields(data), "")
	der, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, errors.Wrap(err, "decode base64")
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, errors.Wrap(err, "parse certificate")
	}
	return cert, nil
}
