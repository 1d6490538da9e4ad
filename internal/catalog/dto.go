package catalog

// logoDTO is the wire shape of a single logo record
type logoDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url,omitempty"`
	CacheURL     string `json:"cache_url,omitempty"`
	ChannelCount int    `json:"channel_count,omitempty"`
	VODCount     int    `json:"vod_count,omitempty"`
}

// pageDTO is the paginated list envelope
type pageDTO struct {
	Count    int       `json:"count"`
	Next     string    `json:"next,omitempty"`
	Previous string    `json:"previous,omitempty"`
	Results  []logoDTO `json:"results"`
}

// createDTO is the request body for logo creation
type createDTO struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}
