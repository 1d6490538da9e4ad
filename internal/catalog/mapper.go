package catalog

import (
	"strings"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

// mapLogo converts a wire record to a domain logo, normalizing once at the
// boundary so internal code never re-checks payload shape.
func mapLogo(d logoDTO) domain.Logo {
	return domain.Logo{
		ID:           d.ID,
		Name:         strings.TrimSpace(d.Name),
		URL:          d.URL,
		CacheURL:     d.CacheURL,
		ChannelCount: d.ChannelCount,
		VODCount:     d.VODCount,
	}
}

// mapLogos converts a wire batch, dropping records without a server ID
func mapLogos(dtos []logoDTO) []domain.Logo {
	logos := make([]domain.Logo, 0, len(dtos))
	for _, d := range dtos {
		if d.ID == 0 {
			continue
		}
		logos = append(logos, mapLogo(d))
	}
	return logos
}
