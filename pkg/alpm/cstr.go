package alpm

import (
	"bytes"
	"unicode/utf8"
	"unsafe"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// Three retrieval modes exist for native strings, chosen per field from
// libalpm's documented nullability:
//
//   - strictStr: the field is never NULL and always valid UTF-8. Anything
//     else is a broken native contract and panics.
//   - optionalStr: NULL means absent.
//   - emptyStr: NULL and "" mean the same thing.

func strictStr(s backend.Str, field string) string {
	if s == nil {
		panic("alpm: libalpm returned NULL for " + field)
	}
	v := backend.GoString(s)
	if !utf8.ValidString(v) {
		panic("alpm: libalpm returned invalid UTF-8 for " + field)
	}
	return v
}

func optionalStr(s backend.Str, field string) (string, bool) {
	if s == nil {
		return "", false
	}
	return strictStr(s, field), true
}

func emptyStr(s backend.Str, field string) string {
	v, _ := optionalStr(s, field)
	return v
}

// cstr is a nul-terminated copy of a Go string in memory the backend can read.
type cstr struct {
	p backend.Str
}

// toCStr copies s for the native side. An embedded nul byte is reported as a
// *NulError; the string is never truncated.
func toCStr[S ~string | ~[]byte](s S) (cstr, error) {
	b := []byte(s)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return cstr{}, &NulError{Pos: i, Len: len(b)}
	}
	return cstr{p: backend.CString(b)}, nil
}

func checkNul[S ~string | ~[]byte](s S) error {
	b := []byte(s)
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return &NulError{Pos: i, Len: len(b)}
	}
	return nil
}

func (c cstr) ptr() unsafe.Pointer { return unsafe.Pointer(c.p) }

func (c cstr) free() {
	if c.p != nil {
		backend.Free(unsafe.Pointer(c.p))
	}
}
