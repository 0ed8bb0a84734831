// Package discord is the REST transport for guild channels and webhooks.
//
// Every call returns the raw rest.Response so that retry decisions stay with
// rest.Execute; the client itself never retries.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/provisioner/internal/core/domain"
	"github.com/vietddude/provisioner/internal/infra/rest"
)

const (
	DefaultBaseURL = "https://discord.com/api/v10"
	userAgent      = "DiscordBot (https://github.com/vietddude/provisioner, 1.0)"
)

// Stats summarises the traffic a Client has produced.
type Stats struct {
	Requests     int
	Failures     int
	RateLimited  int
	TotalLatency time.Duration
}

// Client issues authenticated requests against the Discord REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client

	mu    sync.Mutex
	stats Stats
}

// NewClient creates a client authenticating with a bot token.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type createChannelRequest struct {
	Name string             `json:"name"`
	Type domain.ChannelType `json:"type"`
}

type createWebhookRequest struct {
	Name string `json:"name"`
}

// CreateChannel creates a channel in the guild.
func (c *Client) CreateChannel(ctx context.Context, guild domain.GuildID, name string, kind domain.ChannelType) (rest.Response, error) {
	return c.do(ctx, http.MethodPost, "/guilds/"+guild.String()+"/channels", createChannelRequest{Name: name, Type: kind})
}

// ListChannels lists every channel of the guild, in API order.
func (c *Client) ListChannels(ctx context.Context, guild domain.GuildID) (rest.Response, error) {
	return c.do(ctx, http.MethodGet, "/guilds/"+guild.String()+"/channels", nil)
}

// ListWebhooks lists the webhooks attached to a channel.
func (c *Client) ListWebhooks(ctx context.Context, channelID string) (rest.Response, error) {
	return c.do(ctx, http.MethodGet, "/channels/"+channelID+"/webhooks", nil)
}

// CreateWebhook creates a webhook on a channel.
func (c *Client) CreateWebhook(ctx context.Context, channelID, name string) (rest.Response, error) {
	return c.do(ctx, http.MethodPost, "/channels/"+channelID+"/webhooks", createWebhookRequest{Name: name})
}

// Stats returns a snapshot of request counters.
func (c *Client) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (rest.Response, error) {
	start := time.Now()

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return rest.Response{}, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return rest.Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(time.Since(start), 0)
		return rest.Response{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(time.Since(start), 0)
		return rest.Response{}, fmt.Errorf("read response: %w", err)
	}

	c.record(time.Since(start), resp.StatusCode)

	return rest.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (c *Client) record(latency time.Duration, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Requests++
	c.stats.TotalLatency += latency
	switch {
	case status == http.StatusTooManyRequests:
		c.stats.RateLimited++
	case status < 200 || status >= 300:
		c.stats.Failures++
	}
}
