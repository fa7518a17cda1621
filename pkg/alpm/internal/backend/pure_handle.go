//go:build !cgo || !libalpm

package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/gobwas/glob"
)

const emulatedVersion = "14.0.0"

type handle struct {
	root     Str
	dbpath   Str
	lockfile Str
	gpgdir   Str
	logfile  Str
	dbext    Str

	lists [numListOptions]*node
	ints  [numIntOptions]int

	localdb *db
	syncdbs *node
	trans   *trans

	errno int
	logcb LogFunc
}

func asHandle(h Handle) *handle { return (*handle)(h) }

// fail records code as the handle errno and returns -1.
func (h *handle) fail(code int) int {
	h.errno = code
	return -1
}

func (h *handle) logf(level int, format string, args ...any) {
	if h.logcb == nil {
		return
	}
	h.logcb(level, fmt.Sprintf(format, args...))
}

// canonicalDir appends a trailing slash. When resolve is set the directory
// must exist and symlinks are resolved.
func canonicalDir(path string, resolve bool) (string, int) {
	if resolve {
		fi, err := os.Stat(path)
		if err != nil || !fi.IsDir() {
			return "", ErrNotADir
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", ErrNotADir
		}
		real, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", ErrNotADir
		}
		path = real
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path, ErrOK
}

func Initialize(root, dbpath Str) (Handle, int) {
	if root == nil || dbpath == nil {
		return nil, ErrWrongArgs
	}
	r, code := canonicalDir(GoString(root), true)
	if code != ErrOK {
		return nil, code
	}
	d, _ := canonicalDir(GoString(dbpath), false)

	h := &handle{
		root:     cstr(r),
		dbpath:   cstr(d),
		lockfile: cstr(d + "db.lck"),
		dbext:    cstr(".db"),
	}
	h.lists[OptHookDirs] = stringList([]string{r + "usr/share/libalpm/hooks/"})
	h.ints[OptParallelDownloads] = 1
	h.ints[OptLocalFileSigLevel] = SigUseDefault
	h.ints[OptRemoteFileSigLevel] = SigUseDefault
	h.localdb = newDB(h, "local", true, 0)
	return Handle(unsafe.Pointer(h)), ErrOK
}

func Release(hp Handle) int {
	h := asHandle(hp)
	if h == nil {
		return -1
	}
	if h.trans != nil {
		TransRelease(hp)
	}
	if h.localdb != nil {
		h.localdb.free()
		h.localdb = nil
	}
	eachNode(h.syncdbs, func(p unsafe.Pointer) { (*db)(p).free() })
	poison(h.syncdbs)
	h.syncdbs = nil
	for i := range h.lists {
		poison(h.lists[i])
		h.lists[i] = nil
	}
	h.logcb = nil
	return 0
}

func Errno(hp Handle) int { return asHandle(hp).errno }

// Unlock removes the database lock file.
func Unlock(hp Handle) int {
	h := asHandle(hp)
	if err := os.Remove(GoString(h.lockfile)); err != nil && !os.IsNotExist(err) {
		h.logf(LogError, "could not remove lock file %s\n", GoString(h.lockfile))
		return h.fail(ErrSystem)
	}
	return 0
}

func SetLogCallback(hp Handle, fn LogFunc) {
	asHandle(hp).logcb = fn
}

func Version() string { return emulatedVersion }

// Capabilities reports signature support: the emulation accepts every
// signature level even though it only checks for the presence of .sig files.
func Capabilities() int { return CapabilitySigs }

func GetStrOption(hp Handle, o StrOption) Str {
	h := asHandle(hp)
	switch o {
	case OptRoot:
		return h.root
	case OptDBPath:
		return h.dbpath
	case OptLockfile:
		return h.lockfile
	case OptGPGDir:
		return h.gpgdir
	case OptLogfile:
		return h.logfile
	case OptDBExt:
		return h.dbext
	}
	h.errno = ErrWrongArgs
	return nil
}

func SetStrOption(hp Handle, o StrOption, v Str) int {
	h := asHandle(hp)
	if v == nil {
		return h.fail(ErrWrongArgs)
	}
	s := GoString(v)
	switch o {
	case OptGPGDir:
		dir, _ := canonicalDir(s, false)
		h.gpgdir = cstr(dir)
		h.logf(LogDebug, "option 'gpgdir' = %s\n", dir)
	case OptLogfile:
		h.logfile = cstr(s)
		h.logf(LogDebug, "option 'logfile' = %s\n", s)
	case OptDBExt:
		h.dbext = cstr(s)
		h.logf(LogDebug, "option 'dbext' = %s\n", s)
	default:
		return h.fail(ErrWrongArgs)
	}
	return 0
}

func isDirOption(o ListOption) bool {
	return o == OptHookDirs || o == OptCacheDirs
}

func GetListOption(hp Handle, o ListOption) List {
	return asList(asHandle(hp).lists[o])
}

// listValue copies data into storage owned by the handle.
func (h *handle) listValue(o ListOption, data unsafe.Pointer) (unsafe.Pointer, int) {
	if data == nil {
		return nil, ErrWrongArgs
	}
	if o == OptAssumeInstalled {
		return unsafe.Pointer(dupDepend(asDepend(Depend(data)))), ErrOK
	}
	s := GoString(Str(data))
	if isDirOption(o) {
		if s == "" {
			return nil, ErrWrongArgs
		}
		s, _ = canonicalDir(s, false)
	}
	return unsafe.Pointer(cstr(s)), ErrOK
}

func AddListOption(hp Handle, o ListOption, data unsafe.Pointer) int {
	h := asHandle(hp)
	v, code := h.listValue(o, data)
	if code != ErrOK {
		return h.fail(code)
	}
	h.lists[o] = appendNode(h.lists[o], v)
	return 0
}

// RemoveListOption returns 1 when an element was removed and 0 when none
// matched.
func RemoveListOption(hp Handle, o ListOption, data unsafe.Pointer) int {
	h := asHandle(hp)
	if data == nil {
		return h.fail(ErrWrongArgs)
	}
	var match func(unsafe.Pointer) bool
	if o == OptAssumeInstalled {
		want := asDepend(Depend(data))
		match = func(p unsafe.Pointer) bool {
			have := (*depend)(p)
			return have.nameHash == want.nameHash &&
				GoString(have.name) == GoString(want.name) &&
				GoString(have.version) == GoString(want.version)
		}
	} else {
		want := GoString(Str(data))
		if isDirOption(o) {
			want, _ = canonicalDir(want, false)
		}
		match = func(p unsafe.Pointer) bool { return GoString(Str(p)) == want }
	}
	var removed bool
	h.lists[o], removed = removeNode(h.lists[o], match)
	if removed {
		return 1
	}
	return 0
}

// SetListOption replaces the option with copies of the elements of l. The
// caller keeps ownership of l.
func SetListOption(hp Handle, o ListOption, l List) int {
	h := asHandle(hp)
	var head *node
	for it := asNode(l); it != nil; it = it.next {
		v, code := h.listValue(o, it.data)
		if code != ErrOK {
			return h.fail(code)
		}
		head = appendNode(head, v)
	}
	poison(h.lists[o])
	h.lists[o] = head
	return 0
}

func GetIntOption(hp Handle, o IntOption) int {
	return asHandle(hp).ints[o]
}

func SetIntOption(hp Handle, o IntOption, v int) int {
	h := asHandle(hp)
	switch o {
	case OptParallelDownloads:
		if v < 1 {
			return h.fail(ErrWrongArgs)
		}
	case OptDefaultSigLevel:
		if v&SigUseDefault != 0 {
			return h.fail(ErrWrongArgs)
		}
	}
	h.ints[o] = v
	return 0
}

// fnmatchPatterns walks patterns from last to first. It returns 0 for a
// match, 1 for a match of a negated ("!") pattern and -1 when nothing
// matched.
func fnmatchPatterns(patterns *node, s string) int {
	var items []string
	eachNode(patterns, func(p unsafe.Pointer) { items = append(items, GoString(Str(p))) })
	for i := len(items) - 1; i >= 0; i-- {
		pattern := items[i]
		inverted := strings.HasPrefix(pattern, "!")
		if inverted || strings.HasPrefix(pattern, `\`) {
			pattern = pattern[1:]
		}
		g, err := glob.Compile(pattern)
		if err != nil || !g.Match(s) {
			continue
		}
		if inverted {
			return 1
		}
		return 0
	}
	return -1
}

func MatchOption(hp Handle, o ListOption, s Str) int {
	h := asHandle(hp)
	if o != OptNoUpgrade && o != OptNoExtract {
		return h.fail(ErrWrongArgs)
	}
	return fnmatchPatterns(h.lists[o], GoString(s))
}
