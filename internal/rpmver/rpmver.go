// Package rpmver implements the RPM version comparison algorithm: a total
// order over arbitrary version and release strings, plus the epoch-aware
// composite comparison used to rank component builds.
package rpmver

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlnum(c byte) bool {
	return isDigit(c) || isAlpha(c)
}

// Compare returns -1, 0 or 1 depending on whether a sorts lower than, equal
// to, or higher than b.
//
// Both strings are walked as alternating runs of digits and letters. Any
// other byte is a segment boundary with no ordering weight of its own, except
// tilde and caret: a tilde segment sorts lower than anything, including the
// end of the string, and a caret segment sorts higher than the end of the
// string but lower than any further segment on the other side. Numeric
// segments always beat alphabetic ones; numeric segments compare by magnitude
// (leading zeros stripped), alphabetic ones byte-wise. If all shared segments
// are equal the longer string wins.
//
// Every input has a defined result. The empty string is the lower bound.
func Compare(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for i < len(a) && !isAlnum(a[i]) && a[i] != '~' && a[i] != '^' {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) && b[j] != '~' && b[j] != '^' {
			j++
		}

		aTilde := i < len(a) && a[i] == '~'
		bTilde := j < len(b) && b[j] == '~'
		if aTilde || bTilde {
			if !aTilde {
				return 1
			}
			if !bTilde {
				return -1
			}
			i++
			j++
			continue
		}

		aCaret := i < len(a) && a[i] == '^'
		bCaret := j < len(b) && b[j] == '^'
		if aCaret || bCaret {
			// Caret beats end-of-string but loses to a real segment.
			if i >= len(a) {
				return -1
			}
			if j >= len(b) {
				return 1
			}
			if !aCaret {
				return 1
			}
			if !bCaret {
				return -1
			}
			i++
			j++
			continue
		}

		if i >= len(a) || j >= len(b) {
			break
		}

		numeric := isDigit(a[i])
		var aSeg, bSeg string
		if numeric {
			aSeg, i = takeRun(a, i, isDigit)
			bSeg, j = takeRun(b, j, isDigit)
		} else {
			aSeg, i = takeRun(a, i, isAlpha)
			bSeg, j = takeRun(b, j, isAlpha)
		}

		// Mismatched segment types at the same position: the numeric side
		// is always newer.
		if bSeg == "" {
			if numeric {
				return 1
			}
			return -1
		}

		var rc int
		if numeric {
			rc = compareNumeric(aSeg, bSeg)
		} else {
			rc = compareBytes(aSeg, bSeg)
		}
		if rc != 0 {
			return rc
		}
	}

	if i >= len(a) && j >= len(b) {
		return 0
	}
	if i >= len(a) {
		return -1
	}
	return 1
}

// CompareEVR orders (epoch, version, release) triples. Epoch dominates:
// version and release are only consulted when the earlier field ties.
func CompareEVR(e1 int, v1, r1 string, e2 int, v2, r2 string) int {
	if e1 != e2 {
		if e1 < e2 {
			return -1
		}
		return 1
	}
	if rc := Compare(v1, v2); rc != 0 {
		return rc
	}
	return Compare(r1, r2)
}

func takeRun(s string, start int, pred func(byte) bool) (string, int) {
	end := start
	for end < len(s) && pred(s[end]) {
		end++
	}
	return s[start:end], end
}

func compareNumeric(a, b string) int {
	a = stripLeadingZeros(a)
	b = stripLeadingZeros(b)
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return compareBytes(a, b)
}

func stripLeadingZeros(s string) string {
	i := 0
	for i < len(s) && s[i] == '0' {
		i++
	}
	return s[i:]
}

func compareBytes(a, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}
