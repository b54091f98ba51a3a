package checkout

import (
	"errors"

	"github.com/ariefcatur/ferremas-api/internal/apperr"
)

// FailureKind groups gateway failures by what the buyer can do about them.
type FailureKind string

const (
	FailureTimeout FailureKind = "timeout"
	FailureNetwork FailureKind = "network"
	FailureToken   FailureKind = "token"
	FailureUnknown FailureKind = "unknown"
)

// Failure is the sanitized description of a checkout error. It never carries gateway text.
type Failure struct {
	Kind    FailureKind
	Message string
	Detail  string
}

// ClassifyCreate describes a failure while opening a payment session.
func ClassifyCreate(err error) Failure {
	switch kind := failureKind(err); kind {
	case FailureTimeout:
		return Failure{kind, "The payment server took too long to answer.", "Gateway timeout"}
	case FailureNetwork:
		return Failure{kind, "There was a network problem reaching the payment server.", "Network error"}
	case FailureToken:
		return Failure{kind, "The payment could not be validated.", "Token validation error"}
	default:
		return Failure{kind, "An error occurred while starting the payment.", "Unexpected error"}
	}
}

// ClassifyConfirm describes a failure while confirming a returning payment.
func ClassifyConfirm(err error) Failure {
	switch kind := failureKind(err); kind {
	case FailureTimeout:
		return Failure{kind, "The payment server took too long to answer.", "Gateway timeout"}
	case FailureNetwork:
		return Failure{kind, "There was a network problem reaching the payment server.", "Network error"}
	case FailureToken:
		return Failure{kind, "The transaction could not be validated. The payment session may have expired.", "Invalid or expired session"}
	default:
		return Failure{kind, "An unexpected error occurred while processing the payment.", "Unexpected error"}
	}
}

func failureKind(err error) FailureKind {
	switch {
	case errors.Is(err, apperr.ErrGatewayTimeout):
		return FailureTimeout
	case errors.Is(err, apperr.ErrGatewayNetwork):
		return FailureNetwork
	case errors.Is(err, apperr.ErrGatewayToken):
		return FailureToken
	default:
		return FailureUnknown
	}
}
