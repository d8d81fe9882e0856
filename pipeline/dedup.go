package pipeline

import "product-pulse/internal/models"

// FilterKnown returns the candidates whose IDs are not already attached to
// the product, preserving candidate order. Duplicate IDs within the
// candidate list itself are also collapsed to their first occurrence, so
// re-running discovery against updated state always yields an empty delta.
func FilterKnown(existing []models.Video, candidates []models.VideoCandidate) []models.VideoCandidate {
	seen := make(map[string]struct{}, len(existing)+len(candidates))
	for _, v := range existing {
		seen[v.ID] = struct{}{}
	}

	var fresh []models.VideoCandidate
	for _, c := range candidates {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		fresh = append(fresh, c)
	}
	return fresh
}
