// Package alpmtest builds pacman database trees for tests.
//
// The fixture sources live in testdata as plain text: a local database
// directory, one directory per sync database holding "<name>-<version>/desc"
// entries, and a package cache. Tree copies them into a temporary root and
// packs the sync databases into the archives pacman reads.
package alpmtest

import (
	"archive/tar"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

// Compression selects how an archive is packed.
type Compression int

const (
	Plain Compression = iota
	Gzip
	Zstd
)

// SyncDBs maps each fixture sync database to the compression it is written
// with.
var SyncDBs = map[string]Compression{
	"core":  Gzip,
	"extra": Zstd,
}

// Tree is a filesystem root with a pacman database directory inside it.
type Tree struct {
	Root   string
	DBPath string
	Cache  string
}

func source() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "testdata")
}

// New copies the fixtures into t.TempDir() and writes every sync database.
func New(t testing.TB) *Tree {
	t.Helper()
	root := t.TempDir()
	tr := &Tree{
		Root:   root,
		DBPath: filepath.Join(root, "var", "lib", "pacman"),
		Cache:  filepath.Join(root, "var", "cache", "pacman", "pkg"),
	}
	src := source()
	require.NoError(t, copyDir(filepath.Join(src, "local"), filepath.Join(tr.DBPath, "local")))
	require.NoError(t, copyDir(filepath.Join(src, "cache"), tr.Cache))
	require.NoError(t, os.MkdirAll(filepath.Join(tr.DBPath, "sync"), 0o755))
	for name, c := range SyncDBs {
		tr.WriteSyncDB(t, name, c)
	}
	return tr
}

// Empty returns a root with an empty database directory.
func Empty(t testing.TB) *Tree {
	t.Helper()
	root := t.TempDir()
	tr := &Tree{Root: root, DBPath: filepath.Join(root, "db")}
	require.NoError(t, os.MkdirAll(tr.DBPath, 0o755))
	return tr
}

// WriteSyncDB packs testdata/sync/<name> into DBPath/sync/<name>.db.
func (tr *Tree) WriteSyncDB(t testing.TB, name string, c Compression) string {
	t.Helper()
	dir := filepath.Join(source(), "sync", name)
	var entries []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == dir {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			entries = append(entries, Entry{Name: rel + "/", Mode: 0o755, Dir: true})
			return nil
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Name: rel, Mode: 0o644, Body: body})
		return nil
	})
	require.NoError(t, err)
	out := filepath.Join(tr.DBPath, "sync", name+".db")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))
	require.NoError(t, os.WriteFile(out, Archive(t, c, entries), 0o644))
	return out
}

// Entry is one member of an archive.
type Entry struct {
	Name string
	Mode int64
	Dir  bool
	Body []byte
}

// Archive packs entries into a tar stream compressed with c.
func Archive(t testing.TB, c Compression, entries []Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.Writer = &buf
	var closer io.Closer
	switch c {
	case Gzip:
		zw := gzip.NewWriter(&buf)
		w, closer = zw, zw
	case Zstd:
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		w, closer = zw, zw
	}
	tw := tar.NewWriter(w)
	mtime := time.Unix(1700000000, 0)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.Name, Mode: e.Mode, ModTime: mtime, Typeflag: tar.TypeReg, Size: int64(len(e.Body))}
		if e.Dir {
			hdr.Typeflag = tar.TypeDir
			hdr.Size = 0
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if !e.Dir {
			_, err := tw.Write(e.Body)
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	if closer != nil {
		require.NoError(t, closer.Close())
	}
	return buf.Bytes()
}

// Package describes a package archive for WritePackage.
type Package struct {
	Name      string
	Version   string
	Desc      string
	Depends   []string
	Backup    []string
	Files     []string
	Install   bool
	Changelog string
}

// PKGINFO renders the .PKGINFO member.
func (p Package) PKGINFO() []byte {
	var b bytes.Buffer
	b.WriteString("# Generated by makepkg 6.1.0\n")
	b.WriteString("pkgname = " + p.Name + "\n")
	b.WriteString("pkgbase = " + p.Name + "\n")
	b.WriteString("pkgver = " + p.Version + "\n")
	if p.Desc != "" {
		b.WriteString("pkgdesc = " + p.Desc + "\n")
	}
	b.WriteString("builddate = 1700000000\n")
	b.WriteString("packager = Unknown Packager\n")
	b.WriteString("size = 4096\n")
	b.WriteString("arch = any\n")
	b.WriteString("license = MIT\n")
	for _, d := range p.Depends {
		b.WriteString("depend = " + d + "\n")
	}
	for _, f := range p.Backup {
		b.WriteString("backup = " + f + "\n")
	}
	return b.Bytes()
}

// WritePackage writes a zstd package archive into dir and returns its path.
func WritePackage(t testing.TB, dir string, p Package) string {
	t.Helper()
	entries := []Entry{{Name: ".PKGINFO", Mode: 0o644, Body: p.PKGINFO()}}
	if p.Install {
		entries = append(entries, Entry{Name: ".INSTALL", Mode: 0o644, Body: []byte("post_install() {\n\ttrue\n}\n")})
	}
	if p.Changelog != "" {
		entries = append(entries, Entry{Name: ".CHANGELOG", Mode: 0o644, Body: []byte(p.Changelog)})
	}
	files := append([]string(nil), p.Files...)
	sort.Strings(files)
	for _, f := range files {
		if f[len(f)-1] == '/' {
			entries = append(entries, Entry{Name: f, Mode: 0o755, Dir: true})
			continue
		}
		entries = append(entries, Entry{Name: f, Mode: 0o644, Body: []byte(f + "\n")})
	}
	out := filepath.Join(dir, p.Name+"-"+p.Version+"-any.pkg.tar.zst")
	require.NoError(t, os.WriteFile(out, Archive(t, Zstd, entries), 0o644))
	return out
}

func copyDir(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		body, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return os.WriteFile(target, body, 0o644)
	})
}
