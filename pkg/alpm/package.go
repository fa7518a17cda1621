package alpm

import (
	"bytes"
	"time"
	"unsafe"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// Package is a view of package metadata owned by a database or by a
// LoadedPackage.
type Package struct {
	v view
	p backend.Pkg
}

func convPackage(v view, p unsafe.Pointer) Package {
	return Package{v: v, p: backend.Pkg(p)}
}

func (p Package) str(f backend.PkgStr) backend.Str {
	return backend.PkgGetStr(p.p, f)
}

func (p Package) strict(f backend.PkgStr, field string) string {
	p.v.lock()
	defer p.v.unlock()
	return strictStr(p.str(f), field)
}

func (p Package) optional(f backend.PkgStr, field string) (string, bool) {
	p.v.lock()
	defer p.v.unlock()
	return optionalStr(p.str(f), field)
}

func (p Package) int(f backend.PkgInt) int64 {
	p.v.lock()
	defer p.v.unlock()
	return backend.PkgGetInt(p.p, f)
}

func (p Package) strings(f backend.PkgList, field string) List[string] {
	p.v.lock()
	defer p.v.unlock()
	return newList(p.v, backend.PkgGetList(p.p, f), convString(field))
}

func (p Package) deps(f backend.PkgList) List[Dep] {
	p.v.lock()
	defer p.v.unlock()
	return newList(p.v, backend.PkgGetList(p.p, f), convDep)
}

func (p Package) Name() string { return p.strict(backend.PkgName, "package name") }

// Filename is the package file name; empty for installed packages.
func (p Package) Filename() string {
	p.v.lock()
	defer p.v.unlock()
	return emptyStr(p.str(backend.PkgFilename), "package filename")
}

// Base is the pkgbase the package was split from.
func (p Package) Base() (string, bool) { return p.optional(backend.PkgBase, "package base") }

// Version is the full epoch:pkgver-pkgrel string.
func (p Package) Version() Ver { return Ver(p.strict(backend.PkgVersion, "package version")) }

// Origin tells whether the package came from a file, the local database or a
// sync database.
func (p Package) Origin() (PackageFrom, error) { return decodeOrigin(p.int(backend.PkgOrigin)) }

// Desc is absent when the database has no description, and "" when it has an
// empty one.
func (p Package) Desc() (string, bool) { return p.optional(backend.PkgDesc, "package description") }

func (p Package) URL() (string, bool) { return p.optional(backend.PkgURL, "package url") }

func (p Package) BuildDate() time.Time { return time.Unix(p.int(backend.PkgBuildDate), 0) }

// InstallDate is absent for packages that are not installed.
func (p Package) InstallDate() (time.Time, bool) {
	t := p.int(backend.PkgInstallDate)
	if t == 0 {
		return time.Time{}, false
	}
	return time.Unix(t, 0), true
}

func (p Package) Packager() (string, bool) { return p.optional(backend.PkgPackager, "packager") }

func (p Package) MD5Sum() (string, bool) { return p.optional(backend.PkgMD5Sum, "md5sum") }

func (p Package) SHA256Sum() (string, bool) { return p.optional(backend.PkgSHA256Sum, "sha256sum") }

func (p Package) Arch() (string, bool) { return p.optional(backend.PkgArch, "architecture") }

// Base64Sig is the detached signature as stored in a sync database.
func (p Package) Base64Sig() (string, bool) { return p.optional(backend.PkgBase64Sig, "signature") }

// Size is the download size for sync packages and the file size for loaded
// ones.
func (p Package) Size() int64 { return p.int(backend.PkgSize) }

// ISize is the installed size.
func (p Package) ISize() int64 { return p.int(backend.PkgISize) }

// Reason is why an installed package was installed.
func (p Package) Reason() (PackageReason, error) { return decodeReason(p.int(backend.PkgReason)) }

func (p Package) Validation() (PackageValidation, error) {
	return decodeFlags("validation", p.int(backend.PkgValidation), validationMask)
}

func (p Package) HasScriptlet() bool { return p.int(backend.PkgHasScriptlet) != 0 }

func (p Package) Licenses() List[string] { return p.strings(backend.PkgLicenses, "license") }

func (p Package) Groups() List[string] { return p.strings(backend.PkgGroups, "group") }

// Depends lists the run-time dependencies.
func (p Package) Depends() List[Dep] { return p.deps(backend.PkgDepends) }

func (p Package) OptDepends() List[Dep] { return p.deps(backend.PkgOptDepends) }

func (p Package) CheckDepends() List[Dep] { return p.deps(backend.PkgCheckDepends) }

func (p Package) MakeDepends() List[Dep] { return p.deps(backend.PkgMakeDepends) }

func (p Package) Conflicts() List[Dep] { return p.deps(backend.PkgConflicts) }

func (p Package) Provides() List[Dep] { return p.deps(backend.PkgProvides) }

func (p Package) Replaces() List[Dep] { return p.deps(backend.PkgReplaces) }

// Backup lists the configuration files pacman preserves on upgrade.
func (p Package) Backup() List[Backup] {
	p.v.lock()
	defer p.v.unlock()
	return newList(p.v, backend.PkgGetList(p.p, backend.PkgBackup), convBackup)
}

// Files lists the files the package installs, sorted by path.
func (p Package) Files() FileList {
	p.v.lock()
	defer p.v.unlock()
	return FileList{v: p.v, p: backend.PkgGetFiles(p.p)}
}

// DB is the database the package belongs to; loaded packages have none.
func (p Package) DB() (Db, bool) {
	p.v.lock()
	defer p.v.unlock()
	d := backend.PkgGetDB(p.p)
	if d == nil {
		return Db{}, false
	}
	return Db{v: p.v, p: d}, true
}

// RequiredBy lists the packages that depend on this one: installed packages
// for local and loaded packages, every sync database for sync packages.
func (p Package) RequiredBy() *OwnedList[string] {
	return p.computed(backend.PkgComputeRequiredBy)
}

// OptionalFor lists the packages that optionally depend on this one.
func (p Package) OptionalFor() *OwnedList[string] {
	return p.computed(backend.PkgComputeOptionalFor)
}

func (p Package) computed(fn func(backend.Pkg) backend.List) *OwnedList[string] {
	p.v.lock()
	defer p.v.unlock()
	return newOwnedList(fn(p.p), backend.ElemString, ownedString)
}

// Signature is a decoded detached package signature.
type Signature struct {
	raw []byte
}

// Bytes returns a copy of the signature.
func (s Signature) Bytes() []byte { return bytes.Clone(s.raw) }

func (s Signature) Len() int { return len(s.raw) }

// Sig decodes Base64Sig.
func (p Package) Sig() (Signature, error) {
	p.v.lock()
	defer p.v.unlock()
	buf, n, ret := backend.PkgGetSig(p.p)
	if ret != 0 {
		return Signature{}, p.v.a.nativeErr("get signature")
	}
	defer backend.Free(buf)
	return Signature{raw: backend.SigBytes(buf, n)}, nil
}

// CheckMD5Sum verifies the cached package file of a sync package.
func (p Package) CheckMD5Sum() error {
	p.v.lock()
	defer p.v.unlock()
	if backend.PkgCheckMD5Sum(p.p) != 0 {
		return p.v.a.nativeErr("check md5sum")
	}
	return nil
}

// ShouldIgnore reports whether IgnorePkgs or IgnoreGroups match the package.
func (p Package) ShouldIgnore() bool {
	p.v.lock()
	defer p.v.unlock()
	return backend.PkgShouldIgnore(p.v.a.handle, p.p) != 0
}

// LoadedPackage is a package read from a file. It is owned by the caller and
// must be closed; views obtained from it stay valid until then.
type LoadedPackage struct {
	Package
	own *owner
}

// LoadPkg reads a package archive. With full unset only the metadata is read
// and Files is empty.
func (a *Alpm) LoadPkg(filename string, full bool, level SigLevel) (*LoadedPackage, error) {
	if err := checkFlags("siglevel", level, sigLevelMask); err != nil {
		return nil, err
	}
	c, err := toCStr(filename)
	if err != nil {
		return nil, err
	}
	defer c.free()
	a.lock()
	defer a.unlock()
	p, ret := backend.PkgLoad(a.handle, c.p, full, int(level))
	if ret != 0 || p == nil {
		return nil, a.nativeErr("load " + filename)
	}
	own := newOwner(a, p)
	v := a.newView()
	v.own = own
	return &LoadedPackage{Package: Package{v: v, p: p}, own: own}, nil
}

// Close frees the package. It is safe to call more than once, and after the
// handle itself was released. A package that is never closed is freed once
// neither it nor any view of it is reachable.
func (lp *LoadedPackage) Close() error { return lp.own.close() }

// Backup is a view of a backup file entry.
type Backup struct {
	v view
	p backend.Backup
}

func convBackup(v view, p unsafe.Pointer) Backup {
	return Backup{v: v, p: backend.Backup(p)}
}

func (b Backup) Name() string {
	b.v.lock()
	defer b.v.unlock()
	return strictStr(backend.BackupGetName(b.p), "backup name")
}

// Hash is the MD5 of the file as installed. Entries of loaded packages have
// none.
func (b Backup) Hash() (string, bool) {
	b.v.lock()
	defer b.v.unlock()
	return optionalStr(backend.BackupGetHash(b.p), "backup hash")
}
