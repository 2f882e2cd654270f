package recommend

import "github.com/shelfwise/shelfwise/internal/types"

// mergeRecommendations appends extra entries to primary, de-duplicating by
// book id and capping the result at limit. Primary order is preserved;
// extras fill remaining slots in their own order. Pure: it does not care
// where either list came from.
func mergeRecommendations(primary, extra []types.Recommendation, limit int) []types.Recommendation {
	merged := make([]types.Recommendation, 0, limit)
	seen := make(map[string]struct{}, limit)

	for _, lists := range [][]types.Recommendation{primary, extra} {
		for _, rec := range lists {
			if len(merged) >= limit {
				return merged
			}
			if _, dup := seen[rec.Book.ID]; dup {
				continue
			}
			seen[rec.Book.ID] = struct{}{}
			merged = append(merged, rec)
		}
	}
	return merged
}
