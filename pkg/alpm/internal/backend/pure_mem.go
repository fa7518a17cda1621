//go:build !cgo || !libalpm

package backend

import (
	"bytes"
	"unsafe"
)

// Native is false when the emulated backend is compiled in.
const Native = false

// node mirrors alpm_list_t: the head's prev points at the tail so appends are
// O(1), the tail's next is nil.
type node struct {
	data unsafe.Pointer
	prev *node
	next *node
}

// cstr allocates a nul-terminated copy of s. The empty string still yields a
// non-nil pointer so "present but empty" survives the round trip.
func cstr(s string) Str {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return Str(unsafe.Pointer(&b[0]))
}

// CString copies b into a new nul-terminated buffer. Callers must have checked
// b for embedded nul bytes.
func CString(b []byte) Str {
	return cstr(string(b))
}

// GoString copies a nul-terminated buffer into a Go string.
func GoString(s Str) string {
	if s == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(s), n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(s), n))
}

// Free releases memory returned by CString, DepComputeString or PkgGetSig.
// Emulated allocations are reclaimed by the garbage collector.
func Free(unsafe.Pointer) {}

// SigBytes copies n bytes of a signature buffer returned by PkgGetSig.
func SigBytes(p unsafe.Pointer, n int) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	return bytes.Clone(unsafe.Slice((*byte)(p), n))
}

func asNode(l List) *node { return (*node)(l) }

func asList(n *node) List {
	if n == nil {
		return nil
	}
	return List(unsafe.Pointer(n))
}

func appendNode(head *node, data unsafe.Pointer) *node {
	n := &node{data: data}
	if head == nil {
		n.prev = n
		return n
	}
	tail := head.prev
	tail.next = n
	n.prev = tail
	head.prev = n
	return head
}

// removeNode unlinks the first node whose data satisfies match.
func removeNode(head *node, match func(unsafe.Pointer) bool) (*node, bool) {
	for n := head; n != nil; n = n.next {
		if !match(n.data) {
			continue
		}
		switch {
		case n == head:
			head = n.next
			if head != nil {
				head.prev = n.prev
			}
		case n.next == nil:
			n.prev.next = nil
			head.prev = n.prev
		default:
			n.prev.next = n.next
			n.next.prev = n.prev
		}
		n.next, n.prev, n.data = nil, nil, nil
		return head, true
	}
	return head, false
}

func eachNode(head *node, fn func(unsafe.Pointer)) {
	for n := head; n != nil; n = n.next {
		fn(n.data)
	}
}

func stringNodes(head *node) []string {
	var out []string
	eachNode(head, func(p unsafe.Pointer) { out = append(out, GoString(Str(p))) })
	return out
}

func stringList(items []string) *node {
	var head *node
	for _, s := range items {
		head = appendNode(head, unsafe.Pointer(cstr(s)))
	}
	return head
}

// poison clears every node so that a stale view reads an empty list instead
// of freed data.
func poison(head *node) {
	var nodes []*node
	for n := head; n != nil; n = n.next {
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		n.data, n.prev, n.next = nil, nil, nil
	}
}

func ListNext(l List) List {
	if l == nil {
		return nil
	}
	return asList(asNode(l).next)
}

func ListData(l List) unsafe.Pointer {
	if l == nil {
		return nil
	}
	return asNode(l).data
}

func ListCount(l List) int {
	n := 0
	for it := asNode(l); it != nil; it = it.next {
		n++
	}
	return n
}

// ListAppend appends data and returns the (possibly new) head.
func ListAppend(l List, data unsafe.Pointer) List {
	return asList(appendNode(asNode(l), data))
}

// ListFree releases the list nodes but not their data.
func ListFree(l List) {
	poison(asNode(l))
}

// ListFreeInner releases the data of every node with the deallocator that
// matches kind, then the nodes themselves.
func ListFreeInner(l List, kind ElemKind) {
	if kind == ElemDepend {
		eachNode(asNode(l), func(p unsafe.Pointer) { DepFree(Depend(p)) })
	}
	poison(asNode(l))
}

var strerrors = [NumErrnos]string{
	ErrOK:                          "no error",
	ErrMemory:                      "out of memory!",
	ErrSystem:                      "unexpected system error",
	ErrBadPerms:                    "permission denied",
	ErrNotAFile:                    "could not find or read file",
	ErrNotADir:                     "could not find or read directory",
	ErrWrongArgs:                   "wrong or NULL argument passed",
	ErrDiskSpace:                   "not enough free disk space",
	ErrHandleNull:                  "library not initialized",
	ErrHandleNotNull:               "library already initialized",
	ErrHandleLock:                  "unable to lock database",
	ErrDBOpen:                      "could not open database",
	ErrDBCreate:                    "could not create database",
	ErrDBNull:                      "database not initialized",
	ErrDBNotNull:                   "database already registered",
	ErrDBNotFound:                  "could not find database",
	ErrDBInvalid:                   "invalid or corrupted database",
	ErrDBInvalidSig:                "invalid or corrupted database (PGP signature)",
	ErrDBVersion:                   "database is incorrect version",
	ErrDBWrite:                     "could not update database",
	ErrDBRemove:                    "could not remove database entry",
	ErrServerBadURL:                "invalid url for server",
	ErrServerNone:                  "no servers configured for repository",
	ErrTransNotNull:                "transaction already initialized",
	ErrTransNull:                   "transaction not initialized",
	ErrTransDupTarget:              "duplicate target",
	ErrTransDupFilename:            "duplicate filename",
	ErrTransNotInitialized:         "transaction not initialized",
	ErrTransNotPrepared:            "transaction not prepared",
	ErrTransAbort:                  "transaction aborted",
	ErrTransType:                   "operation not compatible with the transaction type",
	ErrTransNotLocked:              "transaction commit attempt when database is not locked",
	ErrTransHookFailed:             "failed to run transaction hooks",
	ErrPkgNotFound:                 "could not find or read package",
	ErrPkgIgnored:                  "operation cancelled due to ignorepkg",
	ErrPkgInvalid:                  "invalid or corrupted package",
	ErrPkgInvalidChecksum:          "invalid or corrupted package (checksum)",
	ErrPkgInvalidSig:               "invalid or corrupted package (PGP signature)",
	ErrPkgMissingSig:               "package missing required signature",
	ErrPkgOpen:                     "cannot open package file",
	ErrPkgCantRemove:               "cannot remove all files for package",
	ErrPkgInvalidName:              "package filename is not valid",
	ErrPkgInvalidArch:              "package architecture is not valid",
	ErrPkgRepoNotFound:             "could not find repository for target",
	ErrSigMissing:                  "missing PGP signature",
	ErrSigInvalid:                  "invalid PGP signature",
	ErrUnsatisfiedDeps:             "could not satisfy dependencies",
	ErrConflictingDeps:             "conflicting dependencies",
	ErrFileConflicts:               "conflicting files",
	ErrRetrieve:                    "failed to retrieve some files",
	ErrInvalidRegex:                "invalid regular expression",
	ErrLibarchive:                  "libarchive error",
	ErrLibcurl:                     "download library error",
	ErrExternalDownload:            "error invoking external downloader",
	ErrGpgme:                       "gpgme error",
	ErrMissingCapabilitySignatures: "compiled without signature support",
}

func StrError(code int) string {
	if code < 0 || code >= NumErrnos {
		return "unexpected error"
	}
	return strerrors[code]
}
