package search

// Ratio scores the similarity of a and b in [0, 1] with the Ratcliff/Obershelp
// method: find the longest common block of runes, recurse on the pieces to
// its left and right, and return 2*M/T where M is the number of matched runes
// and T the total rune count. No characters are treated as junk.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(newMatcher(ra, rb).matched()) / float64(total)
}

type matcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newMatcher(a, b []rune) *matcher {
	b2j := make(map[rune][]int)
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	return &matcher{a: a, b: b, b2j: b2j}
}

// longest returns the longest block a[i:i+k] == b[j:j+k] inside the given
// bounds. Ties go to the block starting earliest in a, then earliest in b.
func (m *matcher) longest(alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	besti, bestj = alo, blo
	// run[j+1] is the length of the match ending at a[i-1], b[j]
	run := make([]int, len(m.b)+1)
	next := make([]int, len(m.b)+1)
	for i := alo; i < ahi; i++ {
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := run[j] + 1
			next[j+1] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		// clear row i-1 so the buffer can hold row i+1
		if i > alo {
			for _, j := range m.b2j[m.a[i-1]] {
				if j >= blo && j < bhi {
					run[j+1] = 0
				}
			}
		}
		run, next = next, run
	}
	return besti, bestj, bestk
}

// matched sums the sizes of all matching blocks.
func (m *matcher) matched() int {
	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	total := 0
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := m.longest(s.alo, s.ahi, s.blo, s.bhi)
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
