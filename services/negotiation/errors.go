package negotiation

import (
	"errors"
	"fmt"
)

// LedgerError is a user-visible negotiation failure. Acting on a closed or
// stale ledger is reported through one of these, never a panic.
type LedgerError struct {
	Code    string
	Message string
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	codeClosed     = "ledgerClosed"
	codeEmpty      = "ledgerEmpty"
	codeOwnRound   = "ownRound"
	codeValidation = "validationError"
)

func newLedgerError(code, msg string) error {
	return &LedgerError{Code: code, Message: msg}
}

// IsClosed reports whether err is a closed-ledger error.
func IsClosed(err error) bool {
	var le *LedgerError
	return errors.As(err, &le) && le.Code == codeClosed
}
