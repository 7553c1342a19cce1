// Package textmatch provides sequence-based string similarity scoring,
// used for approximate keyword matching in symptom triage.
package textmatch

// Ratio returns a similarity score in [0, 1] for two strings, computed as
// 2*M/T where M is the total size of matched blocks and T the combined
// length. Identical strings score 1, fully dissimilar strings 0.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	m := matchLen(ra, rb, 0, len(ra), 0, len(rb))
	return 2 * float64(m) / float64(total)
}

// BestMatch returns the candidate most similar to word at or above cutoff,
// scanning candidates in order. Ties keep the earliest candidate, so the
// caller's ordering is significant.
func BestMatch(word string, candidates []string, cutoff float64) (string, bool) {
	best := ""
	bestScore := 0.0
	found := false
	for _, c := range candidates {
		score := Ratio(word, c)
		if score < cutoff {
			continue
		}
		if !found || score > bestScore {
			best, bestScore, found = c, score, true
		}
	}
	return best, found
}

// matchLen sums the sizes of all matching blocks between a[alo:ahi] and
// b[blo:bhi] by recursing around the longest common match.
func matchLen(a, b []rune, alo, ahi, blo, bhi int) int {
	i, j, k := longestMatch(a, b, alo, ahi, blo, bhi)
	if k == 0 {
		return 0
	}
	return k + matchLen(a, b, alo, i, blo, j) + matchLen(a, b, i+k, ahi, j+k, bhi)
}

// longestMatch finds the longest matching block between a[alo:ahi] and
// b[blo:bhi], preferring the earliest occurrence in a, then in b.
func longestMatch(a, b []rune, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	b2j := make(map[rune][]int)
	for j := blo; j < bhi; j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
