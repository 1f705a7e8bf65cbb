package tasks

import (
	"sort"
	"strings"

	"github.com/dori/dossier/internal/model"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Match is a search hit
type Match struct {
	Index    int
	Task     model.Task
	Distance int
}

// Search returns tasks whose title fuzzily contains query, closest first.
// A blank query matches nothing.
func (r *Repository) Search(query string) []Match {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	titles := make([]string, len(r.tasks))
	for i, t := range r.tasks {
		titles[i] = t.DisplayTitle()
	}

	ranks := fuzzy.RankFindFold(query, titles)
	sort.Stable(ranks)

	matches := make([]Match, 0, len(ranks))
	for _, rk := range ranks {
		matches = append(matches, Match{
			Index:    rk.OriginalIndex,
			Task:     r.tasks[rk.OriginalIndex].Clone(),
			Distance: rk.Distance,
		})
	}
	return matches
}
