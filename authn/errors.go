package authn

import (
	"errors"
	"net/http"

	"github.com/scc-digitalhub/AAC-sub005/spid"
)

// Internal sentinels used by validators; they never reach the wire directly,
// the dispatcher normalizes them into a Rejection first.
var (
	errClientNotFound     = errors.New("client not found")
	errMethodNotAllowed   = errors.New("authentication method not allowed for client")
	errSecretMismatch     = errors.New("client secret mismatch")
	errAssertionInvalid   = errors.New("client assertion invalid")
	errAssertionReplayed  = errors.New("client assertion jti already observed")
	errVerifierMismatch   = errors.New("code verifier does not match challenge")
	errChallengeMissing   = errors.New("pending authorization carries no code challenge")
	errRotationNotAllowed = errors.New("refresh token rotation not enabled for client")
	errOriginNotEligible  = errors.New("refresh token origin not eligible for rotation")
)

// Rejection is an authentication failure mapped to its external OAuth2 error.
// Client authentication failures all collapse to an opaque invalid_client so
// the response does not leak which check failed; the underlying cause is kept
// for logging only.
type Rejection struct {
	Code        string
	Description string
	Status      int
	cause       error
}

func (r *Rejection) Error() string {
	if r.cause != nil {
		return r.Code + ": " + r.cause.Error()
	}
	return r.Code
}

func (r *Rejection) Unwrap() error {
	return r.cause
}

// invalidClient is the opaque 401 every failed client authentication maps to.
func invalidClient(cause error) *Rejection {
	return &Rejection{
		Code:        "invalid_client",
		Description: "client authentication failed",
		Status:      http.StatusUnauthorized,
		cause:       cause,
	}
}

// invalidRequest is the 400 for malformed requests: repeated parameters,
// undecodable headers, missing required fields.
func invalidRequest(description string) *Rejection {
	return &Rejection{
		Code:        "invalid_request",
		Description: description,
		Status:      http.StatusBadRequest,
	}
}

// protocolViolation surfaces a numbered SPID compliance code. Unlike client
// authentication failures these are deliberately specific: the federation
// rules require naming the violated check.
func protocolViolation(err *spid.ValidationError) *Rejection {
	return &Rejection{
		Code:        string(err.Code()),
		Description: err.Error(),
		Status:      http.StatusBadRequest,
		cause:       err,
	}
}

// AsRejection extracts the Rejection from an error chain, normalizing
// anything else to an opaque invalid_client.
func AsRejection(err error) *Rejection {
	var rejection *Rejection
	if errors.As(err, &rejection) {
		return rejection
	}
	return invalidClient(err)
}
