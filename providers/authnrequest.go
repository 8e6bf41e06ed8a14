package providers

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"net/url"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/scc-digitalhub/AAC-sub005/spid"
)

const (
	protocolNamespace  = "urn:oasis:names:tc:SAML:2.0:protocol"
	assertionNamespace = "urn:oasis:names:tc:SAML:2.0:assertion"

	nameIDFormatTransient = "urn:oasis:names:tc:SAML:2.0:nameid-format:transient"
)

// BuildRedirectURL renders a samlp:AuthnRequest for a registration and
// returns the identity provider SSO URL carrying it in the HTTP-Redirect
// binding (deflate, then base64, then query-encode).
func BuildRedirectURL(rp *RelyingParty, idp *IdPInfo, request *spid.AuthnRequest) (string, error) {
	doc := buildAuthnRequest(rp, idp, request)

	xml, err := doc.WriteToBytes()
	if err != nil {
		return "", errors.Wrap(err, "[BuildRedirectURL] serialize request")
	}

	var deflated bytes.Buffer
	writer, err := flate.NewWriter(&deflated, flate.DefaultCompression)
	if err != nil {
		return "", errors.Wrap(err, "[BuildRedirectURL] deflate")
	}
	if _, err := writer.Write(xml); err != nil {
		return "", errors.Wrap(err, "[BuildRedirectURL] deflate")
	}
	if err := writer.Close(); err != nil {
		return "", errors.Wrap(err, "[BuildRedirectURL] deflate")
	}

	sso, err := url.Parse(idp.SSOURL)
	if err != nil {
		return "", errors.Wrapf(err, "[BuildRedirectURL] SSO URL for %s", idp.EntityID)
	}
	query := sso.Query()
	query.Set("SAMLRequest", base64.StdEncoding.EncodeToString(deflated.Bytes()))
	if request.RelayState != "" {
		query.Set("RelayState", request.RelayState)
	}
	sso.RawQuery = query.Encode()

	return sso.String(), nil
}

func buildAuthnRequest(rp *RelyingParty, idp *IdPInfo, request *spid.AuthnRequest) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("samlp:AuthnRequest")
	root.CreateAttr("xmlns:samlp", protocolNamespace)
	root.CreateAttr("xmlns:saml", assertionNamespace)
	root.CreateAttr("ID", request.ID)
	root.CreateAttr("Version", "2.0")
	root.CreateAttr("IssueInstant", request.IssueInstant.UTC().Format("2006-01-02T15:04:05Z"))
	root.CreateAttr("Destination", idp.SSOURL)
	root.CreateAttr("AssertionConsumerServiceURL", rp.AssertionConsumerURL)
	root.CreateAttr("ProtocolBinding", bindingHTTPPost)

	issuer := root.CreateElement("saml:Issuer")
	issuer.CreateAttr("Format", spid.NameIDFormatEntity)
	issuer.CreateAttr("NameQualifier", rp.EntityID)
	issuer.SetText(rp.EntityID)

	nameIDPolicy := root.CreateElement("samlp:NameIDPolicy")
	nameIDPolicy.CreateAttr("Format", nameIDFormatTransient)

	requestedContext := root.CreateElement("samlp:RequestedAuthnContext")
	requestedContext.CreateAttr("Comparison", "minimum")
	classRef := requestedContext.CreateElement("saml:AuthnContextClassRef")
	classRef.SetText(string(request.RequestedACR))

	return doc
}
