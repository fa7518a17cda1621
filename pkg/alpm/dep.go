package alpm

import (
	"strings"
	"unsafe"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// Ver is a package version of the form [epoch:]version[-release].
type Ver string

func (v Ver) String() string { return string(v) }

// Cmp orders v against o the way pacman does: -1, 0 or 1. It panics if either
// version contains a nul byte; use Vercmp for untrusted input.
func (v Ver) Cmp(o Ver) int {
	n, err := Vercmp(string(v), string(o))
	if err != nil {
		panic(err)
	}
	return n
}

// Vercmp compares two version strings with libalpm's rules: numeric segments
// beat alphabetic ones, a missing epoch is 0 and the release is only compared
// when both sides carry one.
func Vercmp(a, b string) (int, error) {
	ca, err := toCStr(a)
	if err != nil {
		return 0, err
	}
	defer ca.free()
	cb, err := toCStr(b)
	if err != nil {
		return 0, err
	}
	defer cb.free()
	switch n := backend.Vercmp(ca.p, cb.p); {
	case n < 0:
		return -1, nil
	case n > 0:
		return 1, nil
	}
	return 0, nil
}

// Dep is a view of a dependency record owned by a package or by the handle's
// assume-installed list.
type Dep struct {
	v view
	p backend.Depend
}

func convDep(v view, p unsafe.Pointer) Dep {
	return Dep{v: v, p: backend.Depend(p)}
}

func (d Dep) Name() string {
	d.v.lock()
	defer d.v.unlock()
	return strictStr(backend.DepGetStr(d.p, backend.DepName), "dependency name")
}

// Version is absent for an unversioned dependency.
func (d Dep) Version() (Ver, bool) {
	d.v.lock()
	defer d.v.unlock()
	s, ok := optionalStr(backend.DepGetStr(d.p, backend.DepVersion), "dependency version")
	return Ver(s), ok
}

// Desc is the text after ": ", used by optional dependencies.
func (d Dep) Desc() (string, bool) {
	d.v.lock()
	defer d.v.unlock()
	return optionalStr(backend.DepGetStr(d.p, backend.DepDesc), "dependency description")
}

func (d Dep) NameHash() uint64 {
	d.v.lock()
	defer d.v.unlock()
	return backend.DepGetNameHash(d.p)
}

func (d Dep) Mod() (DepMod, error) {
	d.v.lock()
	defer d.v.unlock()
	return decodeDepMod(int64(backend.DepGetMod(d.p)))
}

// String renders the dependency as libalpm would write it.
func (d Dep) String() string {
	d.v.lock()
	defer d.v.unlock()
	s := backend.DepComputeString(d.p)
	defer backend.Free(unsafe.Pointer(s))
	return strictStr(s, "dependency string")
}

// ToDepend copies the record out of the handle.
func (d Dep) ToDepend() (Depend, error) {
	d.v.lock()
	defer d.v.unlock()
	return dependFromNative(d.p)
}

// Depend is a dependency owned by Go, independent of any handle. Build one
// with NewDepend; the zero Depend has no name and the handle rejects it.
type Depend struct {
	name       string
	version    string
	desc       string
	hasVersion bool
	hasDesc    bool
	mod        DepMod
	nameHash   uint64
}

// NewDepend parses "name[<op>version][: description]" with libalpm's parser,
// where op is one of =, <, <=, >, >=.
func NewDepend(s string) (Depend, error) {
	c, err := toCStr(s)
	if err != nil {
		return Depend{}, err
	}
	defer c.free()
	nd := backend.DepFromString(c.p)
	if nd == nil {
		return Depend{}, &Error{Op: "dep_from_string", Code: ErrMemory}
	}
	defer backend.DepFree(nd)
	return dependFromNative(nd)
}

func dependFromNative(p backend.Depend) (Depend, error) {
	mod, err := decodeDepMod(int64(backend.DepGetMod(p)))
	if err != nil {
		return Depend{}, err
	}
	d := Depend{
		name:     strictStr(backend.DepGetStr(p, backend.DepName), "dependency name"),
		mod:      mod,
		nameHash: backend.DepGetNameHash(p),
	}
	d.version, d.hasVersion = optionalStr(backend.DepGetStr(p, backend.DepVersion), "dependency version")
	d.desc, d.hasDesc = optionalStr(backend.DepGetStr(p, backend.DepDesc), "dependency description")
	return d, nil
}

func (d Depend) Name() string { return d.name }

func (d Depend) Version() (Ver, bool) { return Ver(d.version), d.hasVersion }

func (d Depend) Desc() (string, bool) { return d.desc, d.hasDesc }

func (d Depend) Mod() DepMod { return d.mod }

func (d Depend) NameHash() uint64 { return d.nameHash }

// String renders the dependency in the form NewDepend parses.
func (d Depend) String() string {
	var b strings.Builder
	b.WriteString(d.name)
	if d.mod != DepModAny && d.hasVersion {
		b.WriteString(d.mod.String())
		b.WriteString(d.version)
	}
	if d.hasDesc {
		b.WriteString(": ")
		b.WriteString(d.desc)
	}
	return b.String()
}

// native allocates an equivalent native record. The caller frees it with
// backend.DepFree.
func (d Depend) native() (backend.Depend, error) {
	if d.name == "" {
		return nil, &Error{Op: "dependency without a name", Code: ErrWrongArgs}
	}
	c, err := toCStr(d.String())
	if err != nil {
		return nil, err
	}
	defer c.free()
	nd := backend.DepFromString(c.p)
	if nd == nil {
		return nil, &Error{Op: "dep_from_string", Code: ErrMemory}
	}
	return nd, nil
}
