package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	sahilm "github.com/sahilm/fuzzy"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

// Result is a ranked match against the logo name index
type Result struct {
	Logo           *domain.Logo
	Score          int   // Higher is better
	MatchedIndexes []int // Character positions that matched (for highlighting)
}

// Index is a fuzzy name index over cached logos, for picker UIs and the
// CLI search command. Rebuild it from the cache on change; matching is
// case-insensitive and allocation-free per query.
type Index struct {
	mu         sync.RWMutex
	logos      []*domain.Logo
	lowerNames []string
}

// NewIndex creates an empty index
func NewIndex() *Index {
	return &Index{}
}

// indexSource adapts the lowercase names to sahilm/fuzzy.Source
type indexSource []string

func (s indexSource) String(i int) string { return s[i] }
func (s indexSource) Len() int            { return len(s) }

// Rebuild replaces the index contents
func (idx *Index) Rebuild(logos []*domain.Logo) {
	lowerNames := make([]string, len(logos))
	for i, logo := range logos {
		lowerNames[i] = strings.ToLower(logo.Name)
	}

	idx.mu.Lock()
	idx.logos = logos
	idx.lowerNames = lowerNames
	idx.mu.Unlock()
}

// Len returns the number of indexed logos
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.logos)
}

// Filter returns the indexed logos matching query, best match first
func (idx *Index) Filter(query string) []Result {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	matches := sahilm.FindFrom(query, indexSource(idx.lowerNames))

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, Result{
			Logo:           idx.logos[m.Index],
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		})
	}
	return results
}

// RankNames ranks a server-provided name list against query, best first.
// Names that do not match at all are dropped.
func RankNames(query string, names []string) []string {
	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	ranked := make([]string, 0, len(ranks))
	for _, r := range ranks {
		ranked = append(ranked, r.Target)
	}
	return ranked
}
