//go:build !cgo || !libalpm

package backend

import (
	"strings"
	"unsafe"
)

type depend struct {
	name     Str
	version  Str
	desc     Str
	nameHash uint64
	mod      int
}

func asDepend(d Depend) *depend { return (*depend)(d) }

// sdbm is the string hash libalpm stores next to dependency and package names.
func sdbm(s string) uint64 {
	var h uint64
	for i := 0; i < len(s); i++ {
		h = uint64(s[i]) + (h << 6) + (h << 16) - h
	}
	return h
}

func optionalStr(s Str) Str {
	if s == nil {
		return nil
	}
	return cstr(GoString(s))
}

func dupDepend(d *depend) *depend {
	return &depend{
		name:     optionalStr(d.name),
		version:  optionalStr(d.version),
		desc:     optionalStr(d.desc),
		nameHash: d.nameHash,
		mod:      d.mod,
	}
}

// parseDepend splits "name<op>version: description".
func parseDepend(s string) *depend {
	d := &depend{mod: DepModAny}
	spec := s
	if i := strings.Index(s, ": "); i >= 0 {
		d.desc = cstr(s[i+2:])
		spec = s[:i]
	}
	nameEnd := len(spec)
	switch {
	case strings.IndexByte(spec, '<') >= 0:
		nameEnd = strings.IndexByte(spec, '<')
		d.mod = DepModLT
		if strings.HasPrefix(spec[nameEnd:], "<=") {
			d.mod = DepModLE
			d.version = cstr(spec[nameEnd+2:])
		} else {
			d.version = cstr(spec[nameEnd+1:])
		}
	case strings.IndexByte(spec, '>') >= 0:
		nameEnd = strings.IndexByte(spec, '>')
		d.mod = DepModGT
		if strings.HasPrefix(spec[nameEnd:], ">=") {
			d.mod = DepModGE
			d.version = cstr(spec[nameEnd+2:])
		} else {
			d.version = cstr(spec[nameEnd+1:])
		}
	case strings.IndexByte(spec, '=') >= 0:
		nameEnd = strings.IndexByte(spec, '=')
		d.mod = DepModEq
		d.version = cstr(spec[nameEnd+1:])
	}
	name := spec[:nameEnd]
	d.name = cstr(name)
	d.nameHash = sdbm(name)
	return d
}

func DepFromString(s Str) Depend {
	if s == nil {
		return nil
	}
	return Depend(unsafe.Pointer(parseDepend(GoString(s))))
}

func DepFree(d Depend) {
	if p := asDepend(d); p != nil {
		*p = depend{}
	}
}

func DepGetStr(d Depend, f DepStr) Str {
	p := asDepend(d)
	switch f {
	case DepName:
		return p.name
	case DepVersion:
		return p.version
	case DepDesc:
		return p.desc
	}
	return nil
}

func DepGetMod(d Depend) int { return asDepend(d).mod }

func DepGetNameHash(d Depend) uint64 { return asDepend(d).nameHash }

func depOperator(mod int) string {
	switch mod {
	case DepModGE:
		return ">="
	case DepModLE:
		return "<="
	case DepModEq:
		return "="
	case DepModLT:
		return "<"
	case DepModGT:
		return ">"
	}
	return ""
}

func depString(d *depend) string {
	var b strings.Builder
	b.WriteString(GoString(d.name))
	if d.mod != DepModAny && d.version != nil {
		b.WriteString(depOperator(d.mod))
		b.WriteString(GoString(d.version))
	}
	if d.desc != nil {
		b.WriteString(": ")
		b.WriteString(GoString(d.desc))
	}
	return b.String()
}

// DepComputeString returns a newly allocated string the caller must Free.
func DepComputeString(d Depend) Str {
	if d == nil {
		return nil
	}
	return cstr(depString(asDepend(d)))
}

func Vercmp(a, b Str) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return vercmp(GoString(a), GoString(b))
}

func depVersionOK(version string, mod int, want string) bool {
	if mod == DepModAny {
		return true
	}
	cmp := vercmp(version, want)
	switch mod {
	case DepModEq:
		return cmp == 0
	case DepModGE:
		return cmp >= 0
	case DepModLE:
		return cmp <= 0
	case DepModLT:
		return cmp < 0
	case DepModGT:
		return cmp > 0
	}
	return true
}

// satisfies reports whether p fulfils d by name or through a provision.
func satisfies(p *pkg, d *depend) bool {
	name := GoString(d.name)
	if p.nameHash == d.nameHash && GoString(p.strs[PkgName]) == name &&
		depVersionOK(GoString(p.strs[PkgVersion]), d.mod, GoString(d.version)) {
		return true
	}
	for it := p.lists[PkgProvides]; it != nil; it = it.next {
		prov := (*depend)(it.data)
		if prov.nameHash != d.nameHash || GoString(prov.name) != name {
			continue
		}
		if d.mod == DepModAny {
			return true
		}
		if prov.mod == DepModEq && depVersionOK(GoString(prov.version), d.mod, GoString(d.version)) {
			return true
		}
	}
	return false
}
