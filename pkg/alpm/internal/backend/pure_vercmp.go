//go:build !cgo || !libalpm

package backend

import "strings"

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }

func byteAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}

// vercmp orders two full "[epoch:]version[-release]" strings. The release is
// only compared when both sides carry one.
func vercmp(a, b string) int {
	if a == b {
		return 0
	}
	e1, v1, r1, ok1 := parseEVR(a)
	e2, v2, r2, ok2 := parseEVR(b)
	ret := rpmvercmp(e1, e2)
	if ret == 0 {
		ret = rpmvercmp(v1, v2)
		if ret == 0 && ok1 && ok2 {
			ret = rpmvercmp(r1, r2)
		}
	}
	return ret
}

func parseEVR(evr string) (epoch, version, release string, hasRelease bool) {
	s := 0
	for s < len(evr) && isDigit(evr[s]) {
		s++
	}
	se := strings.LastIndexByte(evr[s:], '-')
	if se >= 0 {
		se += s
	}
	start := 0
	epoch = "0"
	if s < len(evr) && evr[s] == ':' {
		if s > 0 {
			epoch = evr[:s]
		}
		start = s + 1
	}
	if se >= 0 {
		return epoch, evr[start:se], evr[se+1:], true
	}
	return epoch, evr[start:], "", false
}

// rpmvercmp compares alternating alphabetic and numeric segments. Numeric
// segments beat alphabetic ones and a trailing alphabetic segment never beats
// an empty one.
func rpmvercmp(a, b string) int {
	if a == b {
		return 0
	}
	one, two := 0, 0
	ptr1, ptr2 := 0, 0
	for one < len(a) && two < len(b) {
		for one < len(a) && !isAlnum(a[one]) {
			one++
		}
		for two < len(b) && !isAlnum(b[two]) {
			two++
		}
		if one >= len(a) || two >= len(b) {
			break
		}
		if sep1, sep2 := one-ptr1, two-ptr2; sep1 != sep2 {
			if sep1 < sep2 {
				return -1
			}
			return 1
		}

		ptr1, ptr2 = one, two
		isnum := isDigit(a[ptr1])
		class := isAlpha
		if isnum {
			class = isDigit
		}
		for ptr1 < len(a) && class(a[ptr1]) {
			ptr1++
		}
		for ptr2 < len(b) && class(b[ptr2]) {
			ptr2++
		}

		seg1, seg2 := a[one:ptr1], b[two:ptr2]
		if seg2 == "" {
			if isnum {
				return 1
			}
			return -1
		}
		if isnum {
			seg1 = strings.TrimLeft(seg1, "0")
			seg2 = strings.TrimLeft(seg2, "0")
			if len(seg1) > len(seg2) {
				return 1
			}
			if len(seg2) > len(seg1) {
				return -1
			}
		}
		if c := strings.Compare(seg1, seg2); c != 0 {
			return c
		}
		one, two = ptr1, ptr2
	}

	if one >= len(a) && two >= len(b) {
		return 0
	}
	if (one >= len(a) && !isAlpha(byteAt(b, two))) || isAlpha(byteAt(a, one)) {
		return -1
	}
	return 1
}
