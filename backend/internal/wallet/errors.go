package wallet

import (
	"errors"
	"fmt"
)

// Kind classifies wallet errors.
type Kind string

const (
	KindProviderMissing      Kind = "provider_missing"
	KindConnectionRejected   Kind = "connection_rejected"
	KindVerificationMismatch Kind = "verification_mismatch"
	KindInvalidAmount        Kind = "invalid_amount"
	KindInvalidAddress       Kind = "invalid_address"
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindProviderCallFailed   Kind = "provider_call_failed"
	KindNotConnected         Kind = "not_connected"
	KindSignatureRequired    Kind = "signature_required"
	KindUnsupported          Kind = "unsupported"
)

// Error is a wallet failure carrying a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinel errors, one per Kind.
var (
	ErrProviderMissing      = &Error{Kind: KindProviderMissing, Message: "Unisat wallet is not installed! Please install it from unisat.io"}
	ErrConnectionRejected   = &Error{Kind: KindConnectionRejected, Message: "No accounts found or user rejected"}
	ErrVerificationMismatch = &Error{Kind: KindVerificationMismatch, Message: "stored wallet session no longer matches the provider"}
	ErrInvalidAmount        = &Error{Kind: KindInvalidAmount, Message: "Amount must be greater than 0"}
	ErrInvalidAddress       = &Error{Kind: KindInvalidAddress, Message: "Recipient address is required"}
	ErrInsufficientFunds    = &Error{Kind: KindInsufficientFunds, Message: "Insufficient balance"}
	ErrProviderCallFailed   = &Error{Kind: KindProviderCallFailed, Message: "wallet provider call failed"}
	ErrNotConnected         = &Error{Kind: KindNotConnected, Message: "Wallet not connected"}
	ErrSignatureRequired    = &Error{Kind: KindSignatureRequired, Message: "Transaction not authorized"}
	ErrUnsupported          = &Error{Kind: KindUnsupported, Message: "operation not supported by this wallet provider"}
)

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// providerFailed normalises a provider rejection into a ProviderCallFailed
// error whose message is the provider's own text when it has one.
func providerFailed(op string, err error) error {
	if err == nil {
		return nil
	}
	var we *Error
	if errors.As(err, &we) {
		return err
	}
	msg := err.Error()
	if msg == "" {
		msg = fmt.Sprintf("%s failed", op)
	}
	return newError(KindProviderCallFailed, msg, fmt.Errorf("%s: %w", op, err))
}

// KindOf returns the Kind of err, or "" if err is not a wallet error.
func KindOf(err error) Kind {
	var we *Error
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}
