package index

// editDistance computes the optimal string alignment distance between a and b,
// where inserting, deleting or substituting a rune, or swapping two adjacent
// runes, each cost one edit. It gives up as soon as the distance must exceed
// limit and reports ok=false.
func editDistance(a, b []rune, limit int) (int, bool) {
	n, m := len(a), len(b)
	if n-m > limit || m-n > limit {
		return 0, false
	}

	// three rolling rows: i-2, i-1, i
	prev2 := make([]int, m+1)
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = j
	}

	for i := 1; i <= n; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= m; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			d := min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if i > 1 && j > 1 && a[i-1] == b[j-2] && a[i-2] == b[j-1] {
				d = min(d, prev2[j-2]+1)
			}
			curr[j] = d
			rowMin = min(rowMin, d)
		}
		if rowMin > limit {
			return 0, false
		}
		prev2, prev, curr = prev, curr, prev2
	}

	if prev[m] > limit {
		return 0, false
	}
	return prev[m], true
}

// MatchWildcard reports whether s matches pattern, where '*' matches any run
// of runes (including none) and '?' matches exactly one rune
func MatchWildcard(pattern, s string) bool {
	p := []rune(pattern)
	r := []rune(s)

	pi, si := 0, 0
	star, mark := -1, 0
	for si < len(r) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == r[si]):
			pi++
			si++
		case pi < len(p) && p[pi] == '*':
			star = pi
			mark = si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}
