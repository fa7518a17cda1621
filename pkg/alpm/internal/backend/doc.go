// Package backend is the native ABI that the alpm package is written against.
//
// Two implementations share one set of signatures:
//
//   - backend_cgo*.go (build tags "cgo && libalpm") links libalpm through
//     pkg-config and forwards every call to the C library.
//   - pure_*.go (the default) emulates the same ABI in Go: opaque pointers,
//     nul-terminated strings, linked lists of pointers, integer return codes
//     and a per-handle errno. It reads pacman's on-disk database formats so the
//     binding can be exercised without the native library.
//
// Nothing outside this package may import "C". Callers own the discipline:
// they must not touch a pointer after the object that produced it was freed,
// and they must serialize all calls that share a Handle.
package backend
