package rest

import (
	"net/http"
	"testing"
	"time"

	"github.com/vietddude/provisioner/internal/core/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		resp       Response
		kind       OutcomeKind
		retryAfter time.Duration
		detail     string
	}{
		{
			name: "created channel",
			resp: Response{StatusCode: 201, Body: []byte(`{"id":"42","name":"channel-1"}`)},
			kind: OutcomeSuccess,
		},
		{
			name: "no content",
			resp: Response{StatusCode: 204},
			kind: OutcomeSuccess,
		},
		{
			name:       "rate limited sub-second",
			resp:       Response{StatusCode: 429, Body: []byte(`{"message":"You are being rate limited.","retry_after":0.5,"global":false}`)},
			kind:       OutcomeRateLimited,
			retryAfter: 500 * time.Millisecond,
		},
		{
			name:       "rate limited fractional",
			resp:       Response{StatusCode: 429, Body: []byte(`{"retry_after":1.337}`)},
			kind:       OutcomeRateLimited,
			retryAfter: 1337 * time.Millisecond,
		},
		{
			name:       "rate limited header only",
			resp:       Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"2"}}},
			kind:       OutcomeRateLimited,
			retryAfter: 2 * time.Second,
		},
		{
			name:       "rate limited without hint",
			resp:       Response{StatusCode: 429, Body: []byte(`not json`)},
			kind:       OutcomeRateLimited,
			retryAfter: 0,
		},
		{
			name:   "forbidden",
			resp:   Response{StatusCode: 403, Body: []byte(`{"message":"Missing Permissions","code":50013}`)},
			kind:   OutcomeClientError,
			detail: "Missing Permissions (code 50013)",
		},
		{
			name:   "not found plain body",
			resp:   Response{StatusCode: 404, Body: []byte("  404: Not Found\n")},
			kind:   OutcomeClientError,
			detail: "404: Not Found",
		},
		{
			name: "bad gateway",
			resp: Response{StatusCode: 502},
			kind: OutcomeTransient,
		},
		{
			name: "internal error",
			resp: Response{StatusCode: 500, Body: []byte(`{"message":"500: Internal Server Error","code":0}`)},
			kind: OutcomeTransient,
		},
		{
			name: "network failure",
			resp: Response{StatusCode: 0},
			kind: OutcomeTransient,
		},
		{
			name: "undecodable success body",
			resp: Response{StatusCode: 200, Body: []byte(`[1,2`)},
			kind: OutcomeTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify[domain.Channel](tt.resp)
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.RetryAfter != tt.retryAfter {
				t.Errorf("RetryAfter = %v, want %v", got.RetryAfter, tt.retryAfter)
			}
			if tt.detail != "" && got.Detail != tt.detail {
				t.Errorf("Detail = %q, want %q", got.Detail, tt.detail)
			}
		})
	}
}

func TestClassify_DecodesPayload(t *testing.T) {
	resp := Response{StatusCode: 200, Body: []byte(`[{"id":"1","url":"https://example.test/a"},{"id":"2","url":"https://example.test/b"}]`)}

	got := Classify[[]domain.Webhook](resp)
	if got.Kind != OutcomeSuccess {
		t.Fatalf("Kind = %v, want success", got.Kind)
	}
	if len(got.Payload) != 2 || got.Payload[1].URL != "https://example.test/b" {
		t.Errorf("unexpected payload: %+v", got.Payload)
	}
}

func TestNext(t *testing.T) {
	tests := []struct {
		from WorkState
		kind OutcomeKind
		want WorkState
	}{
		{StateInFlight, OutcomeSuccess, StateSucceeded},
		{StateInFlight, OutcomeRateLimited, StateRateLimitedWait},
		{StateInFlight, OutcomeClientError, StateFatallyFailed},
		{StateInFlight, OutcomeTransient, StateTransientWait},
		{StateSucceeded, OutcomeTransient, StateSucceeded},
		{StatePending, OutcomeSuccess, StatePending},
	}

	for _, tt := range tests {
		if got := Next(tt.from, tt.kind); got != tt.want {
			t.Errorf("Next(%v, %v) = %v, want %v", tt.from, tt.kind, got, tt.want)
		}
	}
}

func TestClassify_RetryAfterHint(t *testing.T) {
	tests := []struct {
		name    string
		resp    Response
		wait    time.Duration
		hasHint bool
	}{
		{"explicit zero", Response{StatusCode: 429, Body: []byte(`{"retry_after":0}`)}, 0, true},
		{"sub-nanosecond", Response{StatusCode: 429, Body: []byte(`{"retry_after":1e-12}`)}, 0, true},
		{"negative", Response{StatusCode: 429, Body: []byte(`{"retry_after":-1}`)}, 0, true},
		{"header zero", Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"0"}}}, 0, true},
		{"body wins over header", Response{
			StatusCode: 429,
			Header:     http.Header{"Retry-After": []string{"9"}},
			Body:       []byte(`{"retry_after":0.25}`),
		}, 250 * time.Millisecond, true},
		{"no body no header", Response{StatusCode: 429}, 0, false},
		{"body without field", Response{StatusCode: 429, Body: []byte(`{"message":"slow down"}`)}, 0, false},
		{"unparsable header", Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"soon"}}}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify[domain.Channel](tt.resp)
			if got.Kind != OutcomeRateLimited {
				t.Fatalf("Kind = %v, want rate_limited", got.Kind)
			}
			if got.RetryAfter != tt.wait {
				t.Errorf("RetryAfter = %v, want %v", got.RetryAfter, tt.wait)
			}
			if got.HasRetryAfter != tt.hasHint {
				t.Errorf("HasRetryAfter = %v, want %v", got.HasRetryAfter, tt.hasHint)
			}
		})
	}
}
