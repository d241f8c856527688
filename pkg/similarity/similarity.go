// Package similarity scores how alike two short labels such as provider
// names are. The score is a longest-matching-blocks ratio: the longest
// common run of characters is found, the same search is repeated on the
// text left and right of it, and the matched lengths are summed into
// 2*M / (len(a)+len(b)).
//
// Scores are symmetric, deterministic and lie in [0, 1]. Inputs are trimmed,
// lowercased and Unicode case-folded first; no phonetic or transliteration
// normalization is applied.
package similarity

import (
	"strings"

	"golang.org/x/text/cases"
)

// Score returns the similarity of a and b in [0, 1].
// Empty input on either side scores 0 and equal labels score 1.
func Score(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	// Block search breaks ties by position, so fix the argument order to
	// keep Score(a, b) == Score(b, a).
	if nb < na {
		na, nb = nb, na
	}

	ra, rb := []rune(na), []rune(nb)
	matched := matchedLength(ra, rb)
	return 2 * float64(matched) / float64(len(ra)+len(rb))
}

// Normalize prepares a label for comparison.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	// Casers keep state between calls, so each call gets its own.
	return cases.Fold().String(s)
}

// matchedLength sums the sizes of all matching blocks between a and b.
func matchedLength(a, b []rune) int {
	index := make(map[rune][]int, len(b))
	for j, r := range b {
		index[r] = append(index[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	total := 0

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, index, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] inside the given
// bounds. Among equally long blocks the one starting earliest in a wins, and
// then the one starting earliest in b.
func longestMatch(a []rune, index map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	besti, bestj = alo, blo
	runLen := map[int]int{}

	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range index[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := runLen[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		runLen = next
	}
	return besti, bestj, bestk
}
