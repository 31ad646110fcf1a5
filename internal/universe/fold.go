package universe

import "strings"

// foldName is the single case-folding function used for every name index
// in the graph, so SystemByName, SuggestNames, and RegionByName agree on
// what "case-insensitive" means.
func foldName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFold(canonical, foldedQuery string) bool {
	return strings.Contains(strings.ToLower(canonical), foldedQuery)
}
