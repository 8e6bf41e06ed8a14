package flow

import "time"

// PendingAuthorization is the record behind an issued authorization code,
// kept until the code is exchanged at the token endpoint. The PKCE challenge
// captured at authorization time is what the presented code_verifier is
// checked against.
type PendingAuthorization struct {
	Code                string
	ClientID            string
	RealmID             string
	Subject             string
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string
	RedirectURI         string
	IssuedAt            time.Time
}

// Clone returns a deep copy, used by stores to hand out snapshots.
func (p *PendingAuthorization) Clone() *PendingAuthorization {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Scopes = append([]string(nil), p.Scopes...)
	return &clone
}
