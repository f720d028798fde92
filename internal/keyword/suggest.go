package keyword

import "strings"

const maxEditDistance = 2

// Suggest proposes a corrected query by replacing each word missing from the
// catalog with the closest known word within two edits. ok is false when no
// word was replaced.
func (c *Catalog) Suggest(query string) (corrected string, ok bool) {
	terms, err := c.terms()
	if err != nil || len(terms) == 0 {
		return query, false
	}
	words := strings.Fields(strings.ToLower(query))
	for i, w := range words {
		if _, known := terms[w]; known {
			continue
		}
		if best, found := closest(w, terms); found {
			words[i] = best
			ok = true
		}
	}
	if !ok {
		return query, false
	}
	return strings.Join(words, " "), true
}

// terms returns every indexed title and summary term with its document frequency.
func (c *Catalog) terms() (map[string]uint64, error) {
	out := make(map[string]uint64)
	for _, field := range []string{"title", "summary"} {
		dict, err := c.index.FieldDict(field)
		if err != nil {
			return nil, err
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if entry.Count > out[entry.Term] {
				out[entry.Term] = entry.Count
			}
		}
		_ = dict.Close()
	}
	return out, nil
}

// closest picks the term nearest to word: smallest distance, then most
// frequent, then alphabetical.
func closest(word string, terms map[string]uint64) (string, bool) {
	best, bestDist, bestFreq := "", maxEditDistance+1, uint64(0)
	for t, freq := range terms {
		d := levenshtein(word, t)
		if d > maxEditDistance {
			continue
		}
		if d < bestDist || (d == bestDist && (freq > bestFreq || (freq == bestFreq && t < best))) {
			best, bestDist, bestFreq = t, d, freq
		}
	}
	return best, best != ""
}

// levenshtein counts single-rune insertions, deletions and substitutions.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
