// Package rest drives calls against a rate-limited REST API.
//
// This package contains:
//   - Classify: maps a completed response to an Outcome (success, rate limited,
//     client error, transient error)
//   - Driver: retries a single WorkUnit until it succeeds or fails fatally
//   - WorkState: the states a WorkUnit moves through while being driven
package rest

import (
	"context"
	"net/http"
)

// Response is a completed HTTP exchange as seen by the classifier.
// StatusCode 0 means the request never produced a response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Operation performs exactly one API call.
type Operation func(ctx context.Context) (Response, error)
