package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures that abort a whole run.
type ErrorKind int

const (
	KindClientError       ErrorKind = iota + 1 // non-retryable 4xx from the API
	KindNamingParse                            // channel name outside the <prefix>-<index> contract
	KindMissingCredential                      // no bot token configured
	KindMissingWebhook                         // export found a channel without a webhook
	KindRetriesExhausted                       // transient failures exceeded a configured cap
)

func (k ErrorKind) String() string {
	switch k {
	case KindClientError:
		return "client_error"
	case KindNamingParse:
		return "naming_parse"
	case KindMissingCredential:
		return "missing_credential"
	case KindMissingWebhook:
		return "missing_webhook"
	case KindRetriesExhausted:
		return "retries_exhausted"
	default:
		return "unknown"
	}
}

// Error is a fatal, typed failure. Status is only set for KindClientError.
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err wraps a *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
