package domain

// Usage classifies how a logo is referenced server-side
type Usage int

const (
	UsageUnused Usage = iota
	UsageChannel
	UsageVODOnly
)

// String returns the usage label used in list output and logs
func (u Usage) String() string {
	switch u {
	case UsageChannel:
		return "channel"
	case UsageVODOnly:
		return "vod-only"
	default:
		return "unused"
	}
}

// Logo represents a single cached image-asset record.
// Identity is the server-assigned ID and is stable across edits; the cache
// mutates fields in place so every holder of the pointer observes updates.
type Logo struct {
	ID       int64  `json:"id"`        // Server-assigned unique identifier
	Name     string `json:"name"`      // Display name (mutable)
	URL      string `json:"url"`       // Remote origin; empty for locally uploaded assets
	CacheURL string `json:"cache_url"` // Locally served rendition; empty until computed

	// Usage join counts, derived server-side. Not owned by this core.
	ChannelCount int `json:"channel_count"`
	VODCount     int `json:"vod_count"`
}

// Usage returns the derived usage classification
func (l Logo) Usage() Usage {
	switch {
	case l.ChannelCount > 0:
		return UsageChannel
	case l.VODCount > 0:
		return UsageVODOnly
	default:
		return UsageUnused
	}
}

// IsUsed reports whether any channel or VOD entry references this logo
func (l Logo) IsUsed() bool {
	return l.ChannelCount > 0 || l.VODCount > 0
}

// ChannelAssignable reports whether the logo may be offered in channel
// pickers: unused, or already used by the channel domain. Logos referenced
// exclusively by VOD content are excluded.
func (l Logo) ChannelAssignable() bool {
	return l.VODCount == 0 || l.ChannelCount > 0
}

// DisplayURL returns the URL a consumer should render: the locally served
// rendition when available, the remote origin otherwise.
func (l Logo) DisplayURL() string {
	if l.CacheURL != "" {
		return l.CacheURL
	}
	return l.URL
}

// LogoUpdate is a partial update; nil fields are left unchanged
type LogoUpdate struct {
	Name *string `json:"name,omitempty"`
	URL  *string `json:"url,omitempty"`
}

// LoadState tracks the by-id fetch lifecycle for a single logo ID.
// Transitions: Unrequested -> Pending -> Resolved | Failed, and
// Failed -> Pending on retry. Resolved is terminal for the load itself;
// the record's fields may still change through an explicit edit.
type LoadState int

const (
	StateUnrequested LoadState = iota
	StatePending
	StateResolved
	StateFailed
)

// String returns the state label for logs
func (s LoadState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return "unrequested"
	}
}
