package search

import (
	"github.com/sahilm/fuzzy"

	"github.com/grovetools/ccs/pkg/models"
)

// Match is a fuzzy hit on a tracked item.
type Match struct {
	Item           *models.Item
	Score          int
	MatchedIndexes []int
}

type itemSource []*models.Item

func (s itemSource) String(i int) string { return s[i].DisplayName() }
func (s itemSource) Len() int            { return len(s) }

// MatchItems ranks items by how well their display name fuzzily matches query.
// An empty query returns every item in its given order.
func MatchItems(query string, items []*models.Item) []Match {
	if query == "" {
		out := make([]Match, 0, len(items))
		for _, item := range items {
			out = append(out, Match{Item: item})
		}
		return out
	}

	found := fuzzy.FindFrom(query, itemSource(items))
	out := make([]Match, 0, len(found))
	for _, m := range found {
		out = append(out, Match{
			Item:           items[m.Index],
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		})
	}
	return out
}
