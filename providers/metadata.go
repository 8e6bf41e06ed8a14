package providers

import (
	"crypto/tls"
	"encoding/base64"
	"encoding/pem"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	dsig "github.com/russellhaering/goxmldsig"
)

const (
	metadataNamespace = "urn:oasis:names:tc:SAML:2.0:metadata"

	bindingHTTPPost     = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-POST"
	bindingHTTPRedirect = "urn:oasis:names:tc:SAML:2.0:bindings:HTTP-Redirect"

	attributeNameFormatBasic = "urn:oasis:names:tc:SAML:2.0:attrname-format:basic"
)

// MetadataResolver produces signed SPID service provider metadata for a
// relying party registration. The document is built as a DOM, signed with an
// enveloped XML signature, and serialized exactly as signed: any reformatting
// after signing would break the digest.
type MetadataResolver struct {
	repo  Repo
	newID func() string
}

type MetadataResolverOption func(*MetadataResolver)

// WithIDGenerator overrides document ID generation. Tests use this to make
// metadata output reproducible.
func WithIDGenerator(newID func() string) MetadataResolverOption {
	return func(r *MetadataResolver) {
		r.newID = newID
	}
}

func NewMetadataResolver(repo Repo, options ...MetadataResolverOption) *MetadataResolver {
	r := &MetadataResolver{repo: repo}
	for _, opt := range options {
		opt(r)
	}
	if r.newID == nil {
		r.newID = func() string {
			return "_" + uuid.New().String()
		}
	}
	return r
}

// Resolve builds and signs the metadata document for a registration.
func (r *MetadataResolver) Resolve(registrationID string) ([]byte, error) {
	rp, err := r.repo.Get(registrationID)
	if err != nil {
		return nil, errors.Wrap(err, "[MetadataResolver.Resolve] lookup registration")
	}

	descriptor := r.buildEntityDescriptor(rp)

	signed, err := r.sign(descriptor, rp)
	if err != nil {
		return nil, errors.Wrap(err, "[MetadataResolver.Resolve] sign metadata")
	}

	doc := etree.NewDocument()
	doc.SetRoot(signed)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, errors.Wrap(err, "[MetadataResolver.Resolve] serialize metadata")
	}
	return out, nil
}

func (r *MetadataResolver) buildEntityDescriptor(rp *RelyingParty) *etree.Element {
	entity := etree.NewElement("md:EntityDescriptor")
	entity.CreateAttr("xmlns:md", metadataNamespace)
	entity.CreateAttr("entityID", rp.EntityID)
	entity.CreateAttr("ID", r.newID())

	sp := entity.CreateElement("md:SPSSODescriptor")
	sp.CreateAttr("protocolSupportEnumeration", "urn:oasis:names:tc:SAML:2.0:protocol")
	sp.CreateAttr("AuthnRequestsSigned", "true")
	sp.CreateAttr("WantAssertionsSigned", "true")

	keyDescriptor := sp.CreateElement("md:KeyDescriptor")
	keyDescriptor.CreateAttr("use", "signing")
	keyInfo := keyDescriptor.CreateElement("ds:KeyInfo")
	keyInfo.CreateAttr("xmlns:ds", "http://www.w3.org/2000/09/xmldsig#")
	x509Data := keyInfo.CreateElement("ds:X509Data")
	x509Cert := x509Data.CreateElement("ds:X509Certificate")
	x509Cert.SetText(stripPEMArmor(rp.SigningCertPEM))

	if rp.SingleLogoutURL != "" {
		slo := sp.CreateElement("md:SingleLogoutService")
		slo.CreateAttr("Binding", bindingHTTPRedirect)
		slo.CreateAttr("Location", rp.SingleLogoutURL)
	}

	nameIDFormat := sp.CreateElement("md:NameIDFormat")
	nameIDFormat.SetText("urn:oasis:names:tc:SAML:2.0:nameid-format:transient")

	acs := sp.CreateElement("md:AssertionConsumerService")
	acs.CreateAttr("Binding", bindingHTTPPost)
	acs.CreateAttr("Location", rp.AssertionConsumerURL)
	acs.CreateAttr("index", "0")
	acs.CreateAttr("isDefault", "true")

	if len(rp.RequestedAttributes) > 0 {
		attrService := sp.CreateElement("md:AttributeConsumingService")
		attrService.CreateAttr("index", "0")
		serviceName := attrService.CreateElement("md:ServiceName")
		serviceName.CreateAttr("xml:lang", "it")
		serviceName.SetText(rp.Organization.DisplayName)
		for _, attr := range rp.RequestedAttributes {
			requested := attrService.CreateElement("md:RequestedAttribute")
			requested.CreateAttr("Name", string(attr))
			requested.CreateAttr("NameFormat", attributeNameFormatBasic)
		}
	}

	if rp.Organization.Name != "" {
		org := entity.CreateElement("md:Organization")
		orgName := org.CreateElement("md:OrganizationName")
		orgName.CreateAttr("xml:lang", "it")
		orgName.SetText(rp.Organization.Name)
		orgDisplay := org.CreateElement("md:OrganizationDisplayName")
		orgDisplay.CreateAttr("xml:lang", "it")
		orgDisplay.SetText(rp.Organization.DisplayName)
		orgURL := org.CreateElement("md:OrganizationURL")
		orgURL.CreateAttr("xml:lang", "it")
		orgURL.SetText(rp.Organization.URL)
	}

	if rp.Contact.EmailAddress != "" {
		contact := entity.CreateElement("md:ContactPerson")
		contact.CreateAttr("contactType", "other")
		if rp.Contact.Company != "" {
			company := contact.CreateElement("md:Company")
			company.SetText(rp.Contact.Company)
		}
		email := contact.CreateElement("md:EmailAddress")
		email.SetText(rp.Contact.EmailAddress)
	}

	return entity
}

func (r *MetadataResolver) sign(element *etree.Element, rp *RelyingParty) (*etree.Element, error) {
	cert, err := tls.X509KeyPair([]byte(rp.SigningCertPEM), []byte(rp.SigningKeyPEM))
	if err != nil {
		return nil, errors.Wrap(err, "load signing key pair")
	}

	ctx := dsig.NewDefaultSigningContext(dsig.TLSCertKeyStore(cert))
	ctx.Canonicalizer = dsig.MakeC14N10ExclusiveCanonicalizerWithPrefixList("")
	if err := ctx.SetSignatureMethod(dsig.RSASHA256SignatureMethod); err != nil {
		return nil, errors.Wrap(err, "set signature method")
	}

	signed, err := ctx.SignEnveloped(element)
	if err != nil {
		return nil, errors.Wrap(err, "sign enveloped")
	}
	return signed, nil
}

// stripPEMArmor extracts the base64 body of the first PEM block, which is
// what X509Certificate elements carry.
func stripPEMArmor(certPEM string) string {
	block, _ := pem.Decode([]byte(certPEM))
	if block == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(block.Bytes)
}
