package vector

import "sort"

// topK orders hits by descending score, ties by ascending position, and keeps the first k.
func topK(hits []Hit, k int) []Hit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Position < hits[j].Position
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits
}
