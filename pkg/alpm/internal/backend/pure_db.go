//go:build !cgo || !libalpm

package backend

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"
)

const localDBVersion = "9"

type db struct {
	h        *handle
	name     Str
	local    bool
	siglevel int
	usage    int
	servers  *node

	loaded   bool
	loadErr  int
	pkgcache *node
	byName   map[string]*pkg

	groupsLoaded bool
	groups       *node
}

type group struct {
	name     Str
	packages *node
}

func asDB(d DB) *db { return (*db)(d) }

func newDB(h *handle, name string, local bool, level int) *db {
	return &db{h: h, name: cstr(name), local: local, siglevel: level, usage: UsageAll}
}

func (d *db) free() {
	eachNode(d.groups, func(p unsafe.Pointer) { poison((*group)(p).packages) })
	poison(d.groups)
	poison(d.pkgcache)
	poison(d.servers)
	*d = db{h: d.h, name: d.name, local: d.local}
}

func (d *db) dir() string {
	if d.local {
		return GoString(d.h.dbpath) + "local/"
	}
	return GoString(d.h.dbpath) + "sync/"
}

func (d *db) archivePath() string {
	return d.dir() + GoString(d.name) + GoString(d.h.dbext)
}

func GetLocalDB(hp Handle) DB {
	h := asHandle(hp)
	if h.localdb == nil {
		return nil
	}
	return DB(unsafe.Pointer(h.localdb))
}

func GetSyncDBs(hp Handle) List {
	return asList(asHandle(hp).syncdbs)
}

func RegisterSyncDB(hp Handle, name Str, level int) DB {
	h := asHandle(hp)
	treename := GoString(name)
	if name == nil || treename == "" {
		h.errno = ErrWrongArgs
		return nil
	}
	if treename == "local" {
		h.errno = ErrDBNotNull
		return nil
	}
	for it := h.syncdbs; it != nil; it = it.next {
		if GoString((*db)(it.data).name) == treename {
			h.errno = ErrDBNotNull
			return nil
		}
	}
	h.logf(LogDebug, "registering sync database '%s'\n", treename)
	d := newDB(h, treename, false, level)
	h.syncdbs = appendNode(h.syncdbs, unsafe.Pointer(d))
	return DB(unsafe.Pointer(d))
}

func UnregisterAllSyncDBs(hp Handle) int {
	h := asHandle(hp)
	if h.trans != nil {
		return h.fail(ErrTransNotNull)
	}
	eachNode(h.syncdbs, func(p unsafe.Pointer) { (*db)(p).free() })
	poison(h.syncdbs)
	h.syncdbs = nil
	return 0
}

func DBUnregister(dp DB) int {
	d := asDB(dp)
	h := d.h
	if h.trans != nil {
		return h.fail(ErrTransNotNull)
	}
	if d.local {
		if h.localdb != d {
			return h.fail(ErrDBNotFound)
		}
		h.localdb = nil
	} else {
		var found bool
		h.syncdbs, found = removeNode(h.syncdbs, func(p unsafe.Pointer) bool { return (*db)(p) == d })
		if !found {
			return h.fail(ErrDBNotFound)
		}
	}
	h.logf(LogDebug, "unregistering database '%s'\n", GoString(d.name))
	d.free()
	return 0
}

func DBGetName(dp DB) Str { return asDB(dp).name }

func DBGetSigLevel(dp DB) int {
	d := asDB(dp)
	if d.siglevel&SigUseDefault != 0 {
		return d.h.ints[OptDefaultSigLevel]
	}
	return d.siglevel
}

// DBGetValid checks the database version (local) or the presence of the
// database file and its detached signature (sync). Signatures are not
// cryptographically verified.
func DBGetValid(dp DB) int {
	d := asDB(dp)
	if code := d.validate(); code != ErrOK {
		return d.h.fail(code)
	}
	return 0
}

func (d *db) validate() int {
	if d.local {
		dir := d.dir()
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			return ErrOK
		}
		if err != nil {
			return ErrDBOpen
		}
		raw, err := os.ReadFile(dir + "ALPM_DB_VERSION")
		if err != nil {
			if len(entries) == 0 {
				return ErrOK
			}
			return ErrDBVersion
		}
		if strings.TrimSpace(string(raw)) != localDBVersion {
			return ErrDBVersion
		}
		return ErrOK
	}

	file := d.archivePath()
	if _, err := os.Stat(file); err != nil {
		return ErrDBNotFound
	}
	level := DBGetSigLevel(DB(unsafe.Pointer(d)))
	if level&SigDatabase != 0 && level&SigDatabaseOptional == 0 {
		if _, err := os.Stat(file + ".sig"); err != nil {
			d.h.logf(LogError, "%s: missing required signature\n", GoString(d.name))
			return ErrDBInvalidSig
		}
	}
	return ErrOK
}

// load populates the package cache on first use and remembers the outcome.
func (d *db) load() int {
	if d.loaded {
		return d.loadErr
	}
	d.loaded = true
	d.byName = map[string]*pkg{}
	if d.loadErr = d.validate(); d.loadErr != ErrOK {
		return d.loadErr
	}
	var pkgs []*pkg
	var code int
	if d.local {
		pkgs, code = d.loadLocal()
	} else {
		pkgs, code = d.loadSync()
	}
	if code != ErrOK {
		d.loadErr = code
		return code
	}
	sort.SliceStable(pkgs, func(i, j int) bool {
		return GoString(pkgs[i].strs[PkgName]) < GoString(pkgs[j].strs[PkgName])
	})
	for _, p := range pkgs {
		d.pkgcache = appendNode(d.pkgcache, unsafe.Pointer(p))
		d.byName[GoString(p.strs[PkgName])] = p
	}
	d.h.logf(LogDebug, "added %d packages to package cache for db '%s'\n", len(pkgs), GoString(d.name))
	return ErrOK
}

func (d *db) newPkg(origin int) *pkg {
	return &pkg{h: d.h, db: d, origin: origin}
}

func (d *db) loadLocal() ([]*pkg, int) {
	dir := d.dir()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrOK
	}
	if err != nil {
		return nil, ErrDBOpen
	}
	var pkgs []*pkg
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		entry := filepath.Join(dir, e.Name())
		f, err := os.Open(filepath.Join(entry, "desc"))
		if err != nil {
			d.h.logf(LogError, "could not open file %s: %v\n", entry, err)
			continue
		}
		desc, err := parseDesc(f)
		f.Close()
		if err != nil || desc["NAME"] == nil || desc["VERSION"] == nil {
			d.h.logf(LogError, "corrupted database entry '%s'\n", e.Name())
			continue
		}
		p := d.newPkg(FromLocalDB)
		p.dir = entry
		applyDesc(p, desc)
		if _, err := os.Stat(filepath.Join(entry, "install")); err == nil {
			p.ints[PkgHasScriptlet] = 1
		}
		p.finish()
		pkgs = append(pkgs, p)
	}
	return pkgs, ErrOK
}

func (d *db) loadSync() ([]*pkg, int) {
	a, err := openArchive(d.archivePath())
	if err != nil {
		d.h.logf(LogError, "could not open file %s: %v\n", d.archivePath(), err)
		return nil, ErrDBOpen
	}
	defer a.Close()

	byEntry := map[string]descFile{}
	var order []string
	for {
		hdr, err := a.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			d.h.logf(LogError, "could not read db '%s' (%v)\n", GoString(d.name), err)
			return nil, ErrDBInvalid
		}
		entry, file := path.Split(path.Clean(hdr.Name))
		entry = strings.TrimSuffix(entry, "/")
		if entry == "" || (file != "desc" && file != "depends" && file != "files") {
			continue
		}
		section, err := parseDesc(a)
		if err != nil {
			return nil, ErrDBInvalid
		}
		merged, ok := byEntry[entry]
		if !ok {
			merged = descFile{}
			byEntry[entry] = merged
			order = append(order, entry)
		}
		for k, v := range section {
			merged[k] = v
		}
	}

	pkgs := make([]*pkg, 0, len(order))
	for _, entry := range order {
		desc := byEntry[entry]
		if desc["NAME"] == nil || desc["VERSION"] == nil {
			d.h.logf(LogError, "corrupted database entry '%s'\n", entry)
			continue
		}
		p := d.newPkg(FromSyncDB)
		p.filesLoaded = true
		applyDesc(p, desc)
		p.finish()
		pkgs = append(pkgs, p)
	}
	return pkgs, ErrOK
}

func DBGetPkg(dp DB, name Str) Pkg {
	d := asDB(dp)
	if name == nil || GoString(name) == "" {
		d.h.errno = ErrWrongArgs
		return nil
	}
	d.load()
	p, ok := d.byName[GoString(name)]
	if !ok {
		d.h.errno = ErrPkgNotFound
		return nil
	}
	return Pkg(unsafe.Pointer(p))
}

func DBGetPkgCache(dp DB) List {
	d := asDB(dp)
	if code := d.load(); code != ErrOK {
		d.h.errno = code
		return nil
	}
	return asList(d.pkgcache)
}

func (d *db) loadGroups() {
	if d.groupsLoaded {
		return
	}
	d.groupsLoaded = true
	if d.load() != ErrOK {
		return
	}
	index := map[string]*group{}
	for it := d.pkgcache; it != nil; it = it.next {
		p := (*pkg)(it.data)
		for _, name := range stringNodes(p.lists[PkgGroups]) {
			g, ok := index[name]
			if !ok {
				g = &group{name: cstr(name)}
				index[name] = g
				d.groups = appendNode(d.groups, unsafe.Pointer(g))
			}
			g.packages = appendNode(g.packages, unsafe.Pointer(p))
		}
	}
}

func DBGetGroup(dp DB, name Str) Group {
	d := asDB(dp)
	if name == nil || GoString(name) == "" {
		d.h.errno = ErrWrongArgs
		return nil
	}
	d.loadGroups()
	want := GoString(name)
	for it := d.groups; it != nil; it = it.next {
		if GoString((*group)(it.data).name) == want {
			return Group(it.data)
		}
	}
	return nil
}

func DBGetGroupCache(dp DB) List {
	d := asDB(dp)
	d.loadGroups()
	return asList(d.groups)
}

func GroupName(g Group) Str { return (*group)(g).name }

func GroupPackages(g Group) List { return asList((*group)(g).packages) }

func DBGetUsage(dp DB) (int, int) { return asDB(dp).usage, 0 }

func DBSetUsage(dp DB, usage int) int {
	asDB(dp).usage = usage
	return 0
}

func DBGetServers(dp DB) List { return asList(asDB(dp).servers) }

func sanitizeURL(s string) string {
	return strings.TrimSuffix(s, "/")
}

func DBAddServer(dp DB, url Str) int {
	d := asDB(dp)
	if url == nil || GoString(url) == "" {
		return d.h.fail(ErrWrongArgs)
	}
	s := sanitizeURL(GoString(url))
	d.servers = appendNode(d.servers, unsafe.Pointer(cstr(s)))
	d.h.logf(LogDebug, "adding new server URL to database '%s': %s\n", GoString(d.name), s)
	return 0
}

// DBRemoveServer returns 1 when the server was removed and 0 when it was not
// configured.
func DBRemoveServer(dp DB, url Str) int {
	d := asDB(dp)
	if url == nil || GoString(url) == "" {
		return d.h.fail(ErrWrongArgs)
	}
	want := sanitizeURL(GoString(url))
	var removed bool
	d.servers, removed = removeNode(d.servers, func(p unsafe.Pointer) bool { return GoString(Str(p)) == want })
	if removed {
		return 1
	}
	return 0
}

// DBSetServers replaces the server list with copies of l's strings.
func DBSetServers(dp DB, l List) int {
	d := asDB(dp)
	var head *node
	for it := asNode(l); it != nil; it = it.next {
		if it.data == nil || GoString(Str(it.data)) == "" {
			return d.h.fail(ErrWrongArgs)
		}
		head = appendNode(head, unsafe.Pointer(cstr(sanitizeURL(GoString(Str(it.data))))))
	}
	poison(d.servers)
	d.servers = head
	return 0
}
