package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// ChannelPrefix is the name prefix of every channel created by a batch.
	ChannelPrefix = "channel"

	// WebhookName is the name given to webhooks created on channels.
	WebhookName = "explosion"
)

// ChannelName returns the canonical name of the n-th batch channel, e.g. "channel-7".
func ChannelName(prefix string, n int) string {
	return fmt.Sprintf("%s-%d", prefix, n)
}

// OrderingKey extracts the numeric index after the first '-' in a channel name.
//
//	OrderingKey("channel-7")  // 7
//	OrderingKey("channel-07") // 7
//	OrderingKey("channel")    // error
func OrderingKey(name string) (uint64, error) {
	_, suffix, ok := strings.Cut(name, "-")
	if !ok {
		return 0, &Error{
			Kind:   KindNamingParse,
			Op:     "ordering key",
			Detail: fmt.Sprintf("channel name %q has no '-' separator", name),
		}
	}

	key, err := strconv.ParseUint(suffix, 10, 64)
	if err != nil {
		return 0, &Error{
			Kind:   KindNamingParse,
			Op:     "ordering key",
			Detail: fmt.Sprintf("channel name %q has non-numeric suffix %q", name, suffix),
			Err:    err,
		}
	}

	return key, nil
}

// SortChannels returns a copy of channels sorted ascending by ordering key.
// Every name must parse and keys must be unique; nothing is returned otherwise.
func SortChannels(channels []Channel) ([]Channel, error) {
	type keyed struct {
		key uint64
		ch  Channel
	}

	items := make([]keyed, 0, len(channels))
	seen := make(map[uint64]string, len(channels))
	for _, ch := range channels {
		key, err := OrderingKey(ch.Name)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[key]; dup {
			return nil, &Error{
				Kind:   KindNamingParse,
				Op:     "ordering key",
				Detail: fmt.Sprintf("channels %q and %q share ordering key %d", prev, ch.Name, key),
			}
		}
		seen[key] = ch.Name
		items = append(items, keyed{key: key, ch: ch})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].key < items[j].key
	})

	sorted := make([]Channel, len(items))
	for i, it := range items {
		sorted[i] = it.ch
	}
	return sorted, nil
}
