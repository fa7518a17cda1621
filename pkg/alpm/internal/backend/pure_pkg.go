//go:build !cgo || !libalpm

package backend

import (
	"archive/tar"
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unsafe"
)

type pkg struct {
	h        *handle
	db       *db
	origin   int
	nameHash uint64

	strs  [numPkgStrs]Str
	ints  [numPkgInts]int64
	lists [numPkgLists]*node
	files *filelist

	// dir is the local database entry, filesLoaded tracks its lazy files file.
	dir         string
	filesLoaded bool

	changelog    []byte
	hasChangelog bool
}

type backup struct {
	name Str
	hash Str
}

type file struct {
	name Str
	size int64
	mode uint32
}

type filelist struct {
	names []string
	files []file
}

type stream struct {
	r io.ReadCloser
}

func asPkg(p Pkg) *pkg { return (*pkg)(p) }

func appendNodeDep(head *node, d *depend) *node { return appendNode(head, unsafe.Pointer(d)) }

func appendNodeBackup(head *node, b *backup) *node { return appendNode(head, unsafe.Pointer(b)) }

// newFileList sorts paths in byte order so lookups can bisect.
func newFileList(paths []string) *filelist {
	names := append([]string(nil), paths...)
	sort.Strings(names)
	fl := &filelist{names: names, files: make([]file, len(names))}
	for i, n := range names {
		fl.files[i] = file{name: cstr(n)}
	}
	return fl
}

func (p *pkg) finish() {
	p.nameHash = sdbm(GoString(p.strs[PkgName]))
}

// loadFiles reads the local entry's files file on first use.
func (p *pkg) loadFiles() {
	if p.filesLoaded {
		return
	}
	p.filesLoaded = true
	if p.dir == "" {
		return
	}
	f, err := os.Open(filepath.Join(p.dir, "files"))
	if err != nil {
		return
	}
	defer f.Close()
	d, err := parseDesc(f)
	if err != nil {
		p.h.logf(LogError, "could not parse files for %s\n", GoString(p.strs[PkgName]))
		return
	}
	applyFiles(p, d)
}

func PkgGetStr(pp Pkg, f PkgStr) Str {
	return asPkg(pp).strs[f]
}

func PkgGetInt(pp Pkg, f PkgInt) int64 {
	p := asPkg(pp)
	switch f {
	case PkgOrigin:
		return int64(p.origin)
	case PkgHasScriptlet:
		if p.ints[f] != 0 {
			return 1
		}
		return 0
	}
	return p.ints[f]
}

func PkgGetList(pp Pkg, f PkgList) List {
	p := asPkg(pp)
	if f == PkgBackup {
		p.loadFiles()
	}
	return asList(p.lists[f])
}

func PkgGetFiles(pp Pkg) FileList {
	p := asPkg(pp)
	p.loadFiles()
	if p.files == nil {
		p.files = &filelist{}
	}
	return FileList(unsafe.Pointer(p.files))
}

func PkgGetDB(pp Pkg) DB {
	p := asPkg(pp)
	if p.db == nil {
		return nil
	}
	return DB(unsafe.Pointer(p.db))
}

func PkgChangelogOpen(pp Pkg) Stream {
	p := asPkg(pp)
	var r io.ReadCloser
	switch {
	case p.origin == FromLocalDB && p.dir != "":
		f, err := os.Open(filepath.Join(p.dir, "changelog"))
		if err != nil {
			p.h.errno = ErrPkgOpen
			return nil
		}
		r = f
	case p.origin == FromFile && p.hasChangelog:
		r = io.NopCloser(bytes.NewReader(p.changelog))
	default:
		p.h.errno = ErrPkgOpen
		return nil
	}
	return Stream(unsafe.Pointer(&stream{r: r}))
}

// PkgChangelogRead fills buf and returns the byte count; 0 means the stream
// is exhausted.
func PkgChangelogRead(buf []byte, _ Pkg, s Stream) int {
	st := (*stream)(s)
	if st == nil || st.r == nil || len(buf) == 0 {
		return 0
	}
	n, err := io.ReadFull(st.r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0
	}
	return n
}

func PkgChangelogClose(_ Pkg, s Stream) int {
	st := (*stream)(s)
	if st == nil || st.r == nil {
		return -1
	}
	err := st.r.Close()
	st.r = nil
	if err != nil {
		return -1
	}
	return 0
}

func findRequiredBy(target *pkg, d *db, field PkgList, names []string) []string {
	if d == nil || d.load() != ErrOK {
		return names
	}
	for it := d.pkgcache; it != nil; it = it.next {
		candidate := (*pkg)(it.data)
		for dep := candidate.lists[field]; dep != nil; dep = dep.next {
			if !satisfies(target, (*depend)(dep.data)) {
				continue
			}
			name := GoString(candidate.strs[PkgName])
			found := false
			for _, n := range names {
				if n == name {
					found = true
					break
				}
			}
			if !found {
				names = append(names, name)
			}
		}
	}
	return names
}

func computeRequiredBy(pp Pkg, field PkgList) List {
	p := asPkg(pp)
	p.h.errno = ErrOK
	var names []string
	switch p.origin {
	case FromFile:
		names = findRequiredBy(p, p.h.localdb, field, nil)
	case FromLocalDB:
		names = findRequiredBy(p, p.db, field, nil)
	case FromSyncDB:
		eachNode(p.h.syncdbs, func(dp unsafe.Pointer) {
			names = findRequiredBy(p, (*db)(dp), field, names)
		})
		sort.Strings(names)
	}
	return asList(stringList(names))
}

// PkgComputeRequiredBy returns a new list of strings owned by the caller.
func PkgComputeRequiredBy(p Pkg) List { return computeRequiredBy(p, PkgDepends) }

// PkgComputeOptionalFor returns a new list of strings owned by the caller.
func PkgComputeOptionalFor(p Pkg) List { return computeRequiredBy(p, PkgOptDepends) }

// PkgGetSig decodes the base64 signature into a buffer the caller must Free.
func PkgGetSig(pp Pkg) (unsafe.Pointer, int, int) {
	p := asPkg(pp)
	enc := p.strs[PkgBase64Sig]
	if enc == nil {
		return nil, 0, p.h.fail(ErrSigMissing)
	}
	raw, err := base64.StdEncoding.DecodeString(GoString(enc))
	if err != nil {
		return nil, 0, p.h.fail(ErrSigInvalid)
	}
	if len(raw) == 0 {
		return nil, 0, 0
	}
	return unsafe.Pointer(&raw[0]), len(raw), 0
}

func (h *handle) findCached(filename string) (string, bool) {
	for _, dir := range stringNodes(h.lists[OptCacheDirs]) {
		candidate := dir + filename
		if fi, err := os.Stat(candidate); err == nil && fi.Mode().IsRegular() {
			return candidate, true
		}
	}
	return "", false
}

func PkgCheckMD5Sum(pp Pkg) int {
	p := asPkg(pp)
	if p.origin != FromSyncDB {
		return p.h.fail(ErrWrongArgs)
	}
	full, ok := p.h.findCached(GoString(p.strs[PkgFilename]))
	if !ok {
		return p.h.fail(ErrPkgNotFound)
	}
	want := GoString(p.strs[PkgMD5Sum])
	if p.strs[PkgMD5Sum] == nil {
		return p.h.fail(ErrPkgInvalidChecksum)
	}
	f, err := os.Open(full)
	if err != nil {
		return p.h.fail(ErrPkgNotFound)
	}
	defer f.Close()
	sum := md5.New()
	if _, err := io.Copy(sum, f); err != nil {
		return p.h.fail(ErrSystem)
	}
	if hex.EncodeToString(sum.Sum(nil)) != strings.ToLower(want) {
		return p.h.fail(ErrPkgInvalid)
	}
	return 0
}

func PkgShouldIgnore(hp Handle, pp Pkg) int {
	h, p := asHandle(hp), asPkg(pp)
	if fnmatchPatterns(h.lists[OptIgnorePkg], GoString(p.strs[PkgName])) == 0 {
		return 1
	}
	for _, g := range stringNodes(p.lists[PkgGroups]) {
		if fnmatchPatterns(h.lists[OptIgnoreGroup], g) == 0 {
			return 1
		}
	}
	return 0
}

// PkgLoad reads a package archive. With full unset only .PKGINFO is read.
func PkgLoad(hp Handle, filename Str, full bool, level int) (Pkg, int) {
	h := asHandle(hp)
	name := GoString(filename)
	fi, err := os.Stat(name)
	if err != nil || !fi.Mode().IsRegular() {
		h.errno = ErrPkgNotFound
		return nil, -1
	}
	if level&SigUseDefault != 0 {
		level = h.ints[OptDefaultSigLevel]
	}
	if level&SigPackage != 0 && level&SigPackageOptional == 0 {
		if _, err := os.Stat(name + ".sig"); err != nil {
			h.logf(LogError, "%s: missing required signature\n", name)
			h.errno = ErrPkgMissingSig
			return nil, -1
		}
	}

	a, err := openArchive(name)
	if err != nil {
		h.logf(LogError, "could not open file %s: %v\n", name, err)
		h.errno = ErrPkgOpen
		return nil, -1
	}
	defer a.Close()

	p := &pkg{h: h, origin: FromFile, filesLoaded: true}
	var files []string
	sawInfo := false
entries:
	for {
		hdr, err := a.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			h.logf(LogError, "error while reading package %s: %v\n", name, err)
			h.errno = ErrPkgInvalid
			return nil, -1
		}
		entry := strings.TrimPrefix(path.Clean(hdr.Name), "./")
		switch entry {
		case ".PKGINFO":
			info, err := parsePkginfo(a)
			if err != nil {
				h.logf(LogError, "%s: %v\n", name, err)
				h.errno = ErrPkgInvalid
				return nil, -1
			}
			applyPkginfo(p, info)
			sawInfo = true
			if !full {
				break entries
			}
			continue
		case ".INSTALL":
			p.ints[PkgHasScriptlet] = 1
			continue
		case ".CHANGELOG":
			p.changelog, err = io.ReadAll(a)
			if err != nil {
				h.errno = ErrPkgInvalid
				return nil, -1
			}
			p.hasChangelog = true
			continue
		}
		if full && !strings.HasPrefix(entry, ".") {
			if hdr.Typeflag == tar.TypeDir && !strings.HasSuffix(entry, "/") {
				entry += "/"
			}
			files = append(files, entry)
		}
	}
	if !sawInfo || p.strs[PkgName] == nil || p.strs[PkgVersion] == nil {
		h.logf(LogError, "%s: missing package metadata\n", name)
		h.errno = ErrPkgInvalid
		return nil, -1
	}
	p.strs[PkgFilename] = cstr(name)
	p.ints[PkgSize] = fi.Size()
	p.files = newFileList(files)
	p.finish()
	return Pkg(unsafe.Pointer(p)), 0
}

// PkgFree releases a package returned by PkgLoad. Database packages are
// owned by their database and are left alone.
func PkgFree(pp Pkg) int {
	p := asPkg(pp)
	if p == nil {
		return -1
	}
	if p.origin != FromFile {
		return 0
	}
	for i := range p.lists {
		poison(p.lists[i])
	}
	*p = pkg{h: p.h, origin: FromFile}
	return 0
}

func FileListCount(fl FileList) int {
	return len((*filelist)(fl).files)
}

func FileListAt(fl FileList, i int) File {
	return File(unsafe.Pointer(&(*filelist)(fl).files[i]))
}

// FileListContains looks up an exact path, returning nil when it is absent.
func FileListContains(fl FileList, name Str) File {
	l := (*filelist)(fl)
	want := GoString(name)
	i := sort.SearchStrings(l.names, want)
	if i < len(l.names) && l.names[i] == want {
		return FileListAt(fl, i)
	}
	return nil
}

func FileGetName(f File) Str { return (*file)(f).name }

func FileGetSize(f File) int64 { return (*file)(f).size }

func FileGetMode(f File) uint32 { return (*file)(f).mode }

func BackupGetName(b Backup) Str { return (*backup)(b).name }

func BackupGetHash(b Backup) Str { return (*backup)(b).hash }
