package api

import (
	"github.com/satsarcade/sats-arcade/internal/arcade"
	"github.com/satsarcade/sats-arcade/internal/wallet"
)

// APIError represents a structured error response with context
type APIError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e APIError) Error() string {
	return e.Message
}

// Error types not covered by wallet.Kind
const (
	ErrTypeValidation   = "validation_error"
	ErrTypeUnauthorized = "unauthorized"
	ErrTypeShipNotFound = "ship_not_found"
	ErrTypeShipLocked   = "ship_locked"
	ErrTypeTimeout      = "timeout"
	ErrTypeInternal     = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryWallet     ErrorCategory = "wallet"
	CategoryProvider   ErrorCategory = "provider"
	CategoryArcade     ErrorCategory = "arcade"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeValidation,
		string(wallet.KindInvalidAmount),
		string(wallet.KindInvalidAddress):
		return CategoryValidation
	case string(wallet.KindProviderMissing),
		string(wallet.KindProviderCallFailed),
		string(wallet.KindUnsupported):
		return CategoryProvider
	case string(wallet.KindConnectionRejected),
		string(wallet.KindVerificationMismatch),
		string(wallet.KindInsufficientFunds),
		string(wallet.KindNotConnected),
		string(wallet.KindSignatureRequired):
		return CategoryWallet
	case ErrTypeShipNotFound, ErrTypeShipLocked:
		return CategoryArcade
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains version information
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
}

// SessionResponse is the wallet snapshot plus display helpers
type SessionResponse struct {
	wallet.Snapshot
	NetworkName string `json:"network_name"`
	BalanceBTC  string `json:"balance_btc"`
}

// RefreshRequest asks for a wallet refresh
type RefreshRequest struct {
	Force bool `json:"force"`
}

// SendRequest asks the wallet to send bitcoin. Amount is text so that BTC
// amounts keep their precision; Unit defaults to sats.
type SendRequest struct {
	Address string      `json:"address"`
	Amount  string      `json:"amount"`
	Unit    wallet.Unit `json:"unit,omitempty"`
}

// SendResponse reports a broadcast transaction
type SendResponse struct {
	TxID       string `json:"txid"`
	AmountSats int64  `json:"amount_sats"`
	Address    string `json:"address"`
}

// ChainsResponse lists the supported chains
type ChainsResponse struct {
	Chains []wallet.Chain `json:"chains"`
}

// ShipsResponse lists the arcade ships
type ShipsResponse struct {
	Ships []arcade.Ship `json:"ships"`
}

// SelectShipRequest selects a ship by id
type SelectShipRequest struct {
	ID string `json:"id"`
}

// ScoreRequest records a finished game
type ScoreRequest struct {
	Score int `json:"score"`
}

// ScoreResponse reports the high score after recording
type ScoreResponse struct {
	HighScore int  `json:"high_score"`
	NewRecord bool `json:"new_record"`
}
