package spid

import (
	"fmt"
	"strings"
)

// ErrorCode is a stable numbered SPID compliance error, mirroring the
// numbering convention of the official SPID validation suite. The codes are
// externally visible and must stay stable for interoperability.
type ErrorCode string

const (
	// Response-level checks
	ErrorResponseVersion             ErrorCode = "SPID_ERROR_008"
	ErrorResponseIssueInstantMissing ErrorCode = "SPID_ERROR_013"
	ErrorResponseIssueInstantFormat  ErrorCode = "SPID_ERROR_014"
	ErrorResponseIssueInstantEarly   ErrorCode = "SPID_ERROR_015"
	ErrorResponseInResponseToMissing ErrorCode = "SPID_ERROR_016"
	ErrorResponseDestinationMissing  ErrorCode = "SPID_ERROR_019"
	ErrorResponseIssuerFormat        ErrorCode = "SPID_ERROR_030"
	ErrorResponseACRBelowRequested   ErrorCode = "SPID_ERROR_094"

	// Assertion-level checks
	ErrorAssertionSignatureMissing         ErrorCode = "SPID_ERROR_032"
	ErrorAssertionIssueInstantMissing      ErrorCode = "SPID_ERROR_033"
	ErrorAssertionIssueInstantFormat       ErrorCode = "SPID_ERROR_034"
	ErrorAssertionIssueInstantEarly        ErrorCode = "SPID_ERROR_036"
	ErrorAssertionIssueInstantInFuture     ErrorCode = "SPID_ERROR_037"
	ErrorAssertionNameQualifierMissing     ErrorCode = "SPID_ERROR_046"
	ErrorAssertionSubjConfDataMissing      ErrorCode = "SPID_ERROR_051"
	ErrorAssertionSubjConfRecipient        ErrorCode = "SPID_ERROR_052"
	ErrorAssertionSubjConfInResponseTo     ErrorCode = "SPID_ERROR_053"
	ErrorAssertionSubjConfNotOnOrAfter     ErrorCode = "SPID_ERROR_054"
	ErrorAssertionIssuerFormat             ErrorCode = "SPID_ERROR_070"
	ErrorAssertionConditionsMissing        ErrorCode = "SPID_ERROR_073"
	ErrorAssertionConditionsInstants       ErrorCode = "SPID_ERROR_075"
	ErrorAssertionAudienceMissing          ErrorCode = "SPID_ERROR_079"
	ErrorAssertionAuthnStatementCount      ErrorCode = "SPID_ERROR_088"
	ErrorAssertionAuthnContextUnrecognized ErrorCode = "SPID_ERROR_090"
)

// Violation pairs an error code with the detail of what was observed.
type Violation struct {
	Code   ErrorCode
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Detail)
}

// ValidationError aggregates every rule violated by a response or assertion.
// The chain accumulates rather than stopping at the first failure, so the
// full compliance picture is available for diagnostics; Code() surfaces the
// first violated rule as the canonical external code.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "spid validation failed: " + strings.Join(parts, "; ")
}

// Code returns the first violated rule's code.
func (e *ValidationError) Code() ErrorCode {
	if len(e.Violations) == 0 {
		return ""
	}
	return e.Violations[0].Code
}

// Has reports whether a specific code was violated.
func (e *ValidationError) Has(code ErrorCode) bool {
	for _, v := range e.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}
