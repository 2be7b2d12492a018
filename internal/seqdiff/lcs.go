package seqdiff

import "slices"

// lcsScript computes an edit script from a longest common subsequence table. The table holds the
// LCS length of every pair of prefixes, which costs O(len(x)·len(y)) time and space; element
// fan-out in the documents this package serves is small.
func lcsScript(x, y []string) []Op {
	n, m := len(x), len(y)
	w := m + 1
	table := make([]int, (n+1)*w)
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			switch {
			case x[i-1] == y[j-1]:
				table[i*w+j] = table[(i-1)*w+j-1] + 1
			case table[(i-1)*w+j] >= table[i*w+j-1]:
				table[i*w+j] = table[(i-1)*w+j]
			default:
				table[i*w+j] = table[i*w+j-1]
			}
		}
	}

	script := make([]Op, 0, n+m)
	i, j := n, m
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && x[i-1] == y[j-1]:
			script = append(script, Match)
			i--
			j--
		case j == 0 || (i > 0 && table[(i-1)*w+j] >= table[i*w+j-1]):
			script = append(script, Delete)
			i--
		default:
			script = append(script, Insert)
			j--
		}
	}
	slices.Reverse(script)
	return script
}
