package flow

import "errors"

var ErrCodeNotFound = errors.New("authorization code not found")

// Store holds pending authorizations keyed by authorization code.
//
// Peek reads without consuming: the PKCE validator may inspect a pending
// request several times before the single consuming exchange, and concurrent
// peeks for the same code must all observe the same record. Consume is the
// one-shot removal performed after the engine has approved the exchange.
type Store interface {
	Put(pending *PendingAuthorization) error
	Peek(code string) (*PendingAuthorization, error)
	Consume(code string) (*PendingAuthorization, error)
}
