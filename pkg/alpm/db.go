package alpm

import (
	"context"
	"unsafe"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// Db is a view of a registered database.
type Db struct {
	v view
	p backend.DB
}

func convDB(v view, p unsafe.Pointer) Db {
	return Db{v: v, p: backend.DB(p)}
}

// LocalDB is the database of installed packages.
func (a *Alpm) LocalDB() Db {
	a.lock()
	defer a.unlock()
	return Db{v: a.newView(), p: backend.GetLocalDB(a.handle)}
}

// SyncDBs lists the registered sync databases in registration order.
func (a *Alpm) SyncDBs() List[Db] {
	a.lock()
	defer a.unlock()
	return newList(a.newView(), backend.GetSyncDBs(a.handle), convDB)
}

// SyncDB finds a registered sync database by name.
func (a *Alpm) SyncDB(name string) (Db, bool) {
	for db := range a.SyncDBs().All() {
		if db.Name() == name {
			return db, true
		}
	}
	return Db{}, false
}

// RegisterSyncDB registers the sync database name, read from
// DBPath()/sync/<name><DBExt()>. The file does not need to exist yet.
func (a *Alpm) RegisterSyncDB(name string, level SigLevel) (Db, error) {
	if err := checkFlags("siglevel", level, sigLevelMask); err != nil {
		return Db{}, err
	}
	c, err := toCStr(name)
	if err != nil {
		return Db{}, err
	}
	defer c.free()
	a.lock()
	defer a.unlock()
	p := backend.RegisterSyncDB(a.handle, c.p, int(level))
	if p == nil {
		return Db{}, a.nativeErr("register syncdb " + name)
	}
	a.logger.Debug(context.Background(), "sync database registered", "db", name, "siglevel", level.String())
	return Db{v: a.newView(), p: p}, nil
}

// UnregisterAllSyncDBs drops every sync database. It fails while a
// transaction is open.
func (a *Alpm) UnregisterAllSyncDBs() error {
	a.lock()
	defer a.unlock()
	if backend.UnregisterAllSyncDBs(a.handle) != 0 {
		return a.nativeErr("unregister all syncdbs")
	}
	a.invalidate()
	return nil
}

// Unregister drops this sync database. The local database cannot be
// unregistered.
func (d Db) Unregister() error {
	d.v.lock()
	defer d.v.unlock()
	a := d.v.a
	if d.p == backend.GetLocalDB(a.handle) {
		return ErrLocalDB
	}
	name := strictStr(backend.DBGetName(d.p), "database name")
	if backend.DBUnregister(d.p) != 0 {
		return a.nativeErr("unregister " + name)
	}
	a.invalidate()
	a.logger.Debug(context.Background(), "sync database unregistered", "db", name)
	return nil
}

func (d Db) Name() string {
	d.v.lock()
	defer d.v.unlock()
	return strictStr(backend.DBGetName(d.p), "database name")
}

// SigLevel is the effective level: SigUseDefault resolves to the handle's
// default.
func (d Db) SigLevel() (SigLevel, error) {
	d.v.lock()
	defer d.v.unlock()
	return decodeFlags("siglevel", int64(backend.DBGetSigLevel(d.p)), sigLevelMask)
}

// IsValid checks that the database exists and, if required, is signed.
func (d Db) IsValid() error {
	d.v.lock()
	defer d.v.unlock()
	if backend.DBGetValid(d.p) != 0 {
		return d.v.a.nativeErr("validate " + strictStr(backend.DBGetName(d.p), "database name"))
	}
	return nil
}

// Servers lists the mirror URLs in the order they are tried.
func (d Db) Servers() List[string] {
	d.v.lock()
	defer d.v.unlock()
	return newList(d.v.tracking(serversKey{d.p}), backend.DBGetServers(d.p), convString("server"))
}

// AddServer appends a mirror URL; a trailing slash is dropped.
func (d Db) AddServer(url string) error {
	c, err := toCStr(url)
	if err != nil {
		return err
	}
	defer c.free()
	d.v.lock()
	defer d.v.unlock()
	if backend.DBAddServer(d.p, c.p) != 0 {
		return d.v.a.nativeErr("add server")
	}
	d.v.a.mutate(serversKey{d.p})
	return nil
}

// SetServers replaces the mirror URLs.
func (d Db) SetServers(urls []string) error {
	raw, err := newStringList(urls)
	if err != nil {
		return err
	}
	defer raw.free()
	d.v.lock()
	defer d.v.unlock()
	d.v.a.mutate(serversKey{d.p})
	if backend.DBSetServers(d.p, raw.head) != 0 {
		return d.v.a.nativeErr("set servers")
	}
	return nil
}

// RemoveServer reports false when url was not configured.
func (d Db) RemoveServer(url string) (bool, error) {
	c, err := toCStr(url)
	if err != nil {
		return false, err
	}
	defer c.free()
	d.v.lock()
	defer d.v.unlock()
	switch backend.DBRemoveServer(d.p, c.p) {
	case 1:
		d.v.a.mutate(serversKey{d.p})
		return true, nil
	case 0:
		return false, nil
	}
	return false, d.v.a.nativeErr("remove server")
}

// Pkg looks up a package by exact name. A missing package is reported as
// false, not as an error.
func (d Db) Pkg(name string) (Package, bool, error) {
	c, err := toCStr(name)
	if err != nil {
		return Package{}, false, err
	}
	defer c.free()
	d.v.lock()
	defer d.v.unlock()
	p := backend.DBGetPkg(d.p, c.p)
	if p == nil {
		if code := Errno(backend.Errno(d.v.a.handle)); code != ErrPkgNotFound {
			return Package{}, false, &Error{Op: "get package " + name, Code: code}
		}
		return Package{}, false, nil
	}
	return Package{v: d.v, p: p}, true, nil
}

// Pkgs lists every package of the database, sorted by name.
func (d Db) Pkgs() List[Package] {
	d.v.lock()
	defer d.v.unlock()
	return newList(d.v, backend.DBGetPkgCache(d.p), convPackage)
}

// Group looks up a package group by name.
func (d Db) Group(name string) (Group, bool, error) {
	c, err := toCStr(name)
	if err != nil {
		return Group{}, false, err
	}
	defer c.free()
	d.v.lock()
	defer d.v.unlock()
	g := backend.DBGetGroup(d.p, c.p)
	if g == nil {
		return Group{}, false, nil
	}
	return Group{v: d.v, p: g}, true, nil
}

// Groups lists the package groups of the database.
func (d Db) Groups() List[Group] {
	d.v.lock()
	defer d.v.unlock()
	return newList(d.v, backend.DBGetGroupCache(d.p), convGroup)
}

// Usage reports what the database may be used for.
func (d Db) Usage() (Usage, error) {
	d.v.lock()
	defer d.v.unlock()
	u, ret := backend.DBGetUsage(d.p)
	if ret != 0 {
		return 0, d.v.a.nativeErr("get usage")
	}
	return decodeFlags("usage", int64(u), UsageAll)
}

// SetUsage restricts what the database may be used for.
func (d Db) SetUsage(u Usage) error {
	if err := checkFlags("usage", u, UsageAll); err != nil {
		return err
	}
	d.v.lock()
	defer d.v.unlock()
	if backend.DBSetUsage(d.p, int(u)) != 0 {
		return d.v.a.nativeErr("set usage")
	}
	return nil
}

// Group is a view of a named set of packages in one database.
type Group struct {
	v view
	p backend.Group
}

func convGroup(v view, p unsafe.Pointer) Group {
	return Group{v: v, p: backend.Group(p)}
}

func (g Group) Name() string {
	g.v.lock()
	defer g.v.unlock()
	return strictStr(backend.GroupName(g.p), "group name")
}

// Packages lists the members of the group.
func (g Group) Packages() List[Package] {
	g.v.lock()
	defer g.v.unlock()
	return newList(g.v, backend.GroupPackages(g.p), convPackage)
}
