//go:build !cgo || !libalpm

package backend

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	magicGzip = []byte{0x1f, 0x8b}
	magicZstd = []byte{0x28, 0xb5, 0x2f, 0xfd}
	magicXz   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

var errUnsupportedCompression = errors.New("unsupported archive compression")

// archive is a tar stream over an optionally compressed file.
type archive struct {
	*tar.Reader
	closers []func() error
}

func (a *archive) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// openArchive sniffs the compression from the leading magic bytes: gzip and
// zstd are decoded, anything else is read as a plain tar.
func openArchive(path string) (*archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	a := &archive{closers: []func() error{f.Close}}
	br := bufio.NewReader(f)
	head, _ := br.Peek(6)

	var r io.Reader = br
	switch {
	case bytes.HasPrefix(head, magicGzip):
		zr, err := gzip.NewReader(br)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		a.closers = append(a.closers, zr.Close)
		r = zr
	case bytes.HasPrefix(head, magicZstd):
		zr, err := zstd.NewReader(br)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		a.closers = append(a.closers, func() error { zr.Close(); return nil })
		r = zr
	case bytes.HasPrefix(head, magicXz):
		_ = a.Close()
		return nil, fmt.Errorf("%s: %w", path, errUnsupportedCompression)
	}
	a.Reader = tar.NewReader(r)
	return a, nil
}

// descFile holds the %SECTION% blocks of a pacman database entry. A section
// that is present without values maps to an empty, non-nil slice.
type descFile map[string][]string

func parseDesc(r io.Reader) (descFile, error) {
	d := descFile{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	section := ""
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		switch {
		case line == "":
			section = ""
		case section == "" && len(line) > 2 && line[0] == '%' && line[len(line)-1] == '%':
			section = line[1 : len(line)-1]
			if d[section] == nil {
				d[section] = []string{}
			}
		case section != "":
			d[section] = append(d[section], line)
		}
	}
	return d, sc.Err()
}

// str returns nil when the section is absent and "" when it has no value.
func (d descFile) str(key string) Str {
	v, ok := d[key]
	if !ok {
		return nil
	}
	if len(v) == 0 {
		return cstr("")
	}
	return cstr(v[0])
}

func (d descFile) int(key string) int64 {
	v := d[key]
	if len(v) == 0 {
		return 0
	}
	n, _ := strconv.ParseInt(strings.TrimSpace(v[0]), 10, 64)
	return n
}

func (d descFile) strings(key string) *node {
	return stringList(d[key])
}

func (d descFile) depends(key string) *node {
	var head *node
	for _, s := range d[key] {
		head = appendNodeDep(head, parseDepend(s))
	}
	return head
}

func parseValidation(words []string) int64 {
	var v int64
	for _, w := range words {
		switch w {
		case "none":
			v |= ValidationNone
		case "md5":
			v |= ValidationMD5Sum
		case "sha256":
			v |= ValidationSHA256Sum
		case "pgp":
			v |= ValidationSignature
		}
	}
	return v
}

// applyDesc fills p from a desc/depends/files section map. Local entries use
// %SIZE% for the installed size, sync entries carry %CSIZE% and %ISIZE%.
func applyDesc(p *pkg, d descFile) {
	set := func(f PkgStr, key string) {
		if s := d.str(key); s != nil {
			p.strs[f] = s
		}
	}
	set(PkgName, "NAME")
	set(PkgVersion, "VERSION")
	set(PkgBase, "BASE")
	set(PkgDesc, "DESC")
	set(PkgURL, "URL")
	set(PkgArch, "ARCH")
	set(PkgPackager, "PACKAGER")
	set(PkgFilename, "FILENAME")
	set(PkgMD5Sum, "MD5SUM")
	set(PkgSHA256Sum, "SHA256SUM")
	set(PkgBase64Sig, "PGPSIG")

	p.ints[PkgBuildDate] = d.int("BUILDDATE")
	p.ints[PkgInstallDate] = d.int("INSTALLDATE")
	if p.origin == FromLocalDB {
		p.ints[PkgISize] = d.int("SIZE")
	} else {
		p.ints[PkgSize] = d.int("CSIZE")
		p.ints[PkgISize] = d.int("ISIZE")
	}
	if _, ok := d["REASON"]; ok {
		p.ints[PkgReason] = d.int("REASON")
	}
	p.ints[PkgValidation] = parseValidation(d["VALIDATION"])

	for key, f := range map[string]PkgList{"LICENSE": PkgLicenses, "GROUPS": PkgGroups} {
		if _, ok := d[key]; ok {
			p.lists[f] = d.strings(key)
		}
	}
	for key, f := range map[string]PkgList{
		"DEPENDS":      PkgDepends,
		"OPTDEPENDS":   PkgOptDepends,
		"CHECKDEPENDS": PkgCheckDepends,
		"MAKEDEPENDS":  PkgMakeDepends,
		"CONFLICTS":    PkgConflicts,
		"PROVIDES":     PkgProvides,
		"REPLACES":     PkgReplaces,
	} {
		if _, ok := d[key]; ok {
			p.lists[f] = d.depends(key)
		}
	}
	applyFiles(p, d)
}

// applyFiles reads %FILES% and %BACKUP% when present.
func applyFiles(p *pkg, d descFile) {
	if files, ok := d["FILES"]; ok {
		p.files = newFileList(files)
	}
	if lines, ok := d["BACKUP"]; ok {
		var head *node
		for _, line := range lines {
			name, hash, found := strings.Cut(line, "\t")
			b := &backup{name: cstr(name)}
			if found {
				b.hash = cstr(hash)
			}
			head = appendNodeBackup(head, b)
		}
		p.lists[PkgBackup] = head
	}
}

// pkginfo holds the "key = value" lines of a package's .PKGINFO.
type pkginfo map[string][]string

func parsePkginfo(r io.Reader) (pkginfo, error) {
	info := pkginfo{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("malformed .PKGINFO line %q", line)
		}
		key = strings.TrimSpace(key)
		info[key] = append(info[key], strings.TrimSpace(value))
	}
	return info, sc.Err()
}

func applyPkginfo(p *pkg, info pkginfo) {
	d := descFile{}
	keys := map[string]string{
		"pkgname":     "NAME",
		"pkgver":      "VERSION",
		"pkgbase":     "BASE",
		"pkgdesc":     "DESC",
		"url":         "URL",
		"arch":        "ARCH",
		"packager":    "PACKAGER",
		"builddate":   "BUILDDATE",
		"license":     "LICENSE",
		"group":       "GROUPS",
		"depend":      "DEPENDS",
		"optdepend":   "OPTDEPENDS",
		"checkdepend": "CHECKDEPENDS",
		"makedepend":  "MAKEDEPENDS",
		"conflict":    "CONFLICTS",
		"provides":    "PROVIDES",
		"replaces":    "REPLACES",
		"backup":      "BACKUP",
	}
	for from, to := range keys {
		if v, ok := info[from]; ok {
			d[to] = v
		}
	}
	if v, ok := info["size"]; ok {
		d["ISIZE"] = v
	}
	applyDesc(p, d)
}
