package recommendations

import (
	"sort"
	"strings"
)

// sharedTags returns the tags of a that also appear in b, in a's order
func sharedTags(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		seen[strings.ToLower(t)] = struct{}{}
	}

	shared := make([]string, 0)
	for _, t := range a {
		if _, ok := seen[strings.ToLower(t)]; ok {
			shared = append(shared, t)
		}
	}
	return shared
}

func joinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// sortByScore orders best first, keeping the repository order for ties
func sortByScore(items []ScoredItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
