package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// OutcomeKind is the classification of a single response.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRateLimited
	OutcomeClientError
	OutcomeTransient
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeClientError:
		return "client_error"
	case OutcomeTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Outcome is a tagged result. Only the fields relevant to Kind are set:
// Payload for success, RetryAfter for rate limiting, Status/Detail for errors.
// HasRetryAfter is false when the server gave no usable hint; a zero
// RetryAfter with HasRetryAfter set means "retry now".
type Outcome[T any] struct {
	Kind          OutcomeKind
	Payload       T
	RetryAfter    time.Duration
	HasRetryAfter bool
	Status        int
	Detail        string
}

type rateLimitBody struct {
	RetryAfter *float64 `json:"retry_after"`
	Global     bool     `json:"global"`
	Message    string   `json:"message"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Classify maps resp to an Outcome, decoding a success body into T.
// It never performs I/O.
func Classify[T any](resp Response) Outcome[T] {
	code := resp.StatusCode

	switch {
	case code >= 200 && code < 300:
		var payload T
		if len(bytes.TrimSpace(resp.Body)) == 0 {
			return Outcome[T]{Kind: OutcomeSuccess, Payload: payload, Status: code}
		}
		if err := json.Unmarshal(resp.Body, &payload); err != nil {
			return Outcome[T]{
				Kind:   OutcomeTransient,
				Status: code,
				Detail: fmt.Sprintf("decode response: %v", err),
			}
		}
		return Outcome[T]{Kind: OutcomeSuccess, Payload: payload, Status: code}

	case code == http.StatusTooManyRequests:
		wait, ok := retryAfter(resp)
		return Outcome[T]{
			Kind:          OutcomeRateLimited,
			RetryAfter:    wait,
			HasRetryAfter: ok,
			Status:        code,
		}

	case code >= 400 && code < 500:
		return Outcome[T]{
			Kind:   OutcomeClientError,
			Status: code,
			Detail: errorDetail(resp.Body),
		}

	default:
		return Outcome[T]{
			Kind:   OutcomeTransient,
			Status: code,
			Detail: errorDetail(resp.Body),
		}
	}
}

// retryAfter prefers the body's retry_after and falls back to the Retry-After header.
// ok is false when neither carries a usable number.
func retryAfter(resp Response) (wait time.Duration, ok bool) {
	var body rateLimitBody
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.RetryAfter != nil {
		if wait, ok := seconds(*body.RetryAfter); ok {
			return wait, true
		}
	}

	if h := resp.Header.Get("Retry-After"); h != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(h), 64); err == nil {
			return seconds(v)
		}
	}

	return 0, false
}

// seconds converts a server hint. Zero and negative values mean "retry now".
func seconds(v float64) (time.Duration, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v <= 0 {
		return 0, true
	}
	return time.Duration(v * float64(time.Second)), true
}

func errorDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && eb.Message != "" {
		if eb.Code != 0 {
			return fmt.Sprintf("%s (code %d)", eb.Message, eb.Code)
		}
		return eb.Message
	}

	detail := strings.TrimSpace(string(body))
	if len(detail) > 256 {
		detail = detail[:256]
	}
	return detail
}
