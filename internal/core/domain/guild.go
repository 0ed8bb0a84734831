package domain

import "strconv"

// GuildID identifies a pre-existing guild. Guilds are never created or removed here.
type GuildID uint64

func (g GuildID) String() string {
	return strconv.FormatUint(uint64(g), 10)
}

// ParseGuildID parses a decimal guild snowflake.
func ParseGuildID(s string) (GuildID, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return GuildID(id), nil
}

type ChannelType int

const (
	ChannelTypeText     ChannelType = 0
	ChannelTypeVoice    ChannelType = 2
	ChannelTypeCategory ChannelType = 4
)

// Channel is a child resource of a guild. ID is assigned by the API on creation.
type Channel struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Type    ChannelType `json:"type"`
	GuildID string      `json:"guild_id,omitempty"`
}

// Webhook is attached to exactly one channel.
type Webhook struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
	Token     string `json:"token,omitempty"`
	URL       string `json:"url,omitempty"`
}

// WebhookURLBase is where execute URLs live when the API omits Webhook.URL.
const WebhookURLBase = "https://discord.com/api/webhooks"

// ResolveURL returns the webhook's execute URL, building it from ID and Token if needed.
func (w Webhook) ResolveURL() string {
	if w.URL != "" {
		return w.URL
	}
	if w.ID == "" || w.Token == "" {
		return ""
	}
	return WebhookURLBase + "/" + w.ID + "/" + w.Token
}
