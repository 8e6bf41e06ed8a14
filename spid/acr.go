package spid

import "github.com/pkg/errors"

// ACR is a SPID Authentication Context Class Reference, the asserted
// authentication strength level.
type ACR string

const (
	ACRSpidL1 ACR = "https://www.spid.gov.it/SpidL1"
	ACRSpidL2 ACR = "https://www.spid.gov.it/SpidL2"
	ACRSpidL3 ACR = "https://www.spid.gov.it/SpidL3"
)

var acrLevels = map[ACR]int{
	ACRSpidL1: 1,
	ACRSpidL2: 2,
	ACRSpidL3: 3,
}

// ParseACR maps an AuthnContextClassRef value to a recognized SPID level.
func ParseACR(value string) (ACR, error) {
	acr := ACR(value)
	if _, ok := acrLevels[acr]; !ok {
		return "", errors.Errorf("unrecognized SPID authentication context: %q", value)
	}
	return acr, nil
}

// Level returns the ordinal strength of the ACR, 0 if unrecognized.
func (a ACR) Level() int {
	return acrLevels[a]
}

// Satisfies reports whether the obtained ACR meets the requested one. SPID
// allows an identity provider to return a stronger context than requested,
// so the comparison is >=, not ==.
func (a ACR) Satisfies(requested ACR) bool {
	return a.Level() > 0 && a.Level() >= requested.Level()
}
