package convert

import (
	"path/filepath"
	"slices"
)

// naturalLess compares strings treating runs of digits as numbers, so that
// "Im2" sorts before "Im10" and "1000.jpg" after "999.jpg"
func naturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			si := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			sj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na := trimZeros(a[si:i])
			nb := trimZeros(b[sj:j])
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			// equal value, shorter zero padding first
			if i-si != j-sj {
				return i-si < j-sj
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}

func naturalCompare(a, b string) int {
	switch {
	case naturalLess(a, b):
		return -1
	case naturalLess(b, a):
		return 1
	}
	return 0
}

// sortNatural sorts names in place
func sortNatural(names []string) {
	slices.SortStableFunc(names, naturalCompare)
}

// sortPathsByName sorts paths by their base name, natural order
func sortPathsByName(paths []string) {
	slices.SortStableFunc(paths, func(a, b string) int {
		if c := naturalCompare(filepath.Base(a), filepath.Base(b)); c != 0 {
			return c
		}
		return naturalCompare(a, b)
	})
}
