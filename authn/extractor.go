package authn

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const jwtBearerAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// Extractor pulls a candidate credential of one scheme out of a request.
// Returning (nil, nil) means the scheme declines: nothing in the request
// addresses it, and the chain moves on. Returning an error means the request
// addressed the scheme but is malformed, which short-circuits the chain.
type Extractor interface {
	Extract(r *http.Request) (*Candidate, error)
}

// TokenEndpointExtractors returns the extractor chain for the token
// endpoint, in priority order. The first extractor to produce a candidate
// wins; later schemes are not consulted.
func TokenEndpointExtractors() []Extractor {
	return []Extractor{
		&jwtAssertionExtractor{},
		&pkceExtractor{},
		&refreshRotationExtractor{},
		&secretPostExtractor{},
		&secretBasicExtractor{},
	}
}

// exactlyOne reads a form parameter that must not repeat. Returns
// (value, true, nil) when present once, (_, false, nil) when absent, and an
// error when repeated.
func exactlyOne(form url.Values, key string) (string, bool, error) {
	values, ok := form[key]
	if !ok || len(values) == 0 {
		return "", false, nil
	}
	if len(values) > 1 {
		return "", false, invalidRequest(fmt.Sprintf("parameter %s must not be repeated", key))
	}
	return values[0], true, nil
}

// basicAuthCredentials decodes an Authorization: Basic header. Per RFC 6749
// §2.3.1 the client id and secret are form-urlencoded before being joined
// and base64-encoded, so both halves are percent-decoded after splitting.
func basicAuthCredentials(r *http.Request) (clientID, secret string, present bool, err error) {
	rawID, rawSecret, ok := r.BasicAuth()
	if !ok {
		if strings.HasPrefix(r.Header.Get("Authorization"), "Basic ") {
			return "", "", true, invalidRequest("malformed Authorization header")
		}
		return "", "", false, nil
	}

	clientID, err = url.QueryUnescape(rawID)
	if err != nil {
		return "", "", true, invalidRequest("malformed client id in Authorization header")
	}
	secret, err = url.QueryUnescape(rawSecret)
	if err != nil {
		return "", "", true, invalidRequest("malformed client secret in Authorization header")
	}
	return clientID, secret, true, nil
}

type jwtAssertionExtractor struct{}

func (e *jwtAssertionExtractor) Extract(r *http.Request) (*Candidate, error) {
	assertionType, hasType, err := exactlyOne(r.PostForm, "client_assertion_type")
	if err != nil {
		return nil, err
	}
	assertion, hasAssertion, err := exactlyOne(r.PostForm, "client_assertion")
	if err != nil {
		return nil, err
	}

	if !hasType && !hasAssertion {
		return nil, nil
	}
	if !hasType || !hasAssertion {
		return nil, invalidRequest("client_assertion and client_assertion_type must be presented together")
	}
	if assertionType != jwtBearerAssertionType {
		return nil, invalidRequest("unsupported client_assertion_type")
	}
	if assertion == "" {
		return nil, invalidRequest("client_assertion must not be empty")
	}

	return &Candidate{Kind: KindJwtAssertion, Assertion: assertion}, nil
}

type pkceExtractor struct{}

func (e *pkceExtractor) Extract(r *http.Request) (*Candidate, error) {
	verifier, hasVerifier, err := exactlyOne(r.PostForm, "code_verifier")
	if err != nil {
		return nil, err
	}
	if !hasVerifier {
		return nil, nil
	}

	grantType, _, err := exactlyOne(r.PostForm, "grant_type")
	if err != nil {
		return nil, err
	}
	if grantType != "authorization_code" {
		return nil, invalidRequest("code_verifier is only valid for the authorization_code grant")
	}

	code, hasCode, err := exactlyOne(r.PostForm, "code")
	if err != nil {
		return nil, err
	}
	if !hasCode || code == "" {
		return nil, invalidRequest("code is required with code_verifier")
	}

	clientID, _, err := exactlyOne(r.PostForm, "client_id")
	if err != nil {
		return nil, err
	}

	return &Candidate{
		Kind:         KindPKCE,
		ClientID:     clientID,
		Code:         code,
		CodeVerifier: verifier,
	}, nil
}

type refreshRotationExtractor struct{}

func (e *refreshRotationExtractor) Extract(r *http.Request) (*Candidate, error) {
	grantType, hasGrant, err := exactlyOne(r.PostForm, "grant_type")
	if err != nil {
		return nil, err
	}
	if !hasGrant || grantType != "refresh_token" {
		return nil, nil
	}

	// A refresh_token grant accompanied by a real client credential is
	// authenticated by that credential instead; rotation only authenticates
	// public clients.
	if _, _, present, _ := basicAuthCredentials(r); present {
		return nil, nil
	}
	if secret, _, err := exactlyOne(r.PostForm, "client_secret"); err != nil {
		return nil, err
	} else if secret != "" {
		return nil, nil
	}

	refreshToken, hasToken, err := exactlyOne(r.PostForm, "refresh_token")
	if err != nil {
		return nil, err
	}
	if !hasToken || refreshToken == "" {
		return nil, invalidRequest("refresh_token is required for the refresh_token grant")
	}

	clientID, _, err := exactlyOne(r.PostForm, "client_id")
	if err != nil {
		return nil, err
	}

	return &Candidate{
		Kind:         KindRefreshRotation,
		ClientID:     clientID,
		RefreshToken: refreshToken,
	}, nil
}

type secretPostExtractor struct{}

func (e *secretPostExtractor) Extract(r *http.Request) (*Candidate, error) {
	// An Authorization header takes precedence over body credentials: when
	// both are present the request authenticates with basic, and duplicated
	// credentials are for the validator to judge.
	if _, _, present, _ := basicAuthCredentials(r); present {
		return nil, nil
	}

	secret, hasSecret, err := exactlyOne(r.PostForm, "client_secret")
	if err != nil {
		return nil, err
	}
	if !hasSecret {
		return nil, nil
	}

	clientID, hasID, err := exactlyOne(r.PostForm, "client_id")
	if err != nil {
		return nil, err
	}
	if !hasID || clientID == "" {
		return nil, invalidRequest("client_id is required with client_secret")
	}

	return &Candidate{Kind: KindSecretPost, ClientID: clientID, Secret: secret}, nil
}

type secretBasicExtractor struct{}

func (e *secretBasicExtractor) Extract(r *http.Request) (*Candidate, error) {
	clientID, secret, present, err := basicAuthCredentials(r)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	if clientID == "" {
		return nil, invalidRequest("client id in Authorization header must not be empty")
	}

	return &Candidate{Kind: KindSecretBasic, ClientID: clientID, Secret: secret}, nil
}
