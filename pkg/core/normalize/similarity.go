package normalize

// Ratio is a character-level, order-sensitive similarity in [0,1]:
// 2*matches/(len(a)+len(b)), where matches counts the characters covered by
// recursively taking the longest common block and matching what remains on
// each side of it. Labels are short ASCII-ish strings, so bytes are fine.
func Ratio(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 1
	}
	m := matchingChars(a, b)
	return 2 * float64(m) / float64(len(a)+len(b))
}

func matchingChars(a, b string) int {
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest common substring, preferring the earliest
// position in a (then b) on ties so results are deterministic.
func longestMatch(a, b string) (besti, bestj, bestsize int) {
	b2j := make(map[byte][]int, len(b))
	for j := 0; j < len(b); j++ {
		b2j[b[j]] = append(b2j[b[j]], j)
	}

	j2len := map[int]int{}
	for i := 0; i < len(a); i++ {
		newj2len := map[int]int{}
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
