package alpm_test

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

func TestAbsentVersusEmptyFields(t *testing.T) {
	h, _ := newHandle(t)

	nourl := localPkg(t, h, "nourl")
	url, ok := nourl.URL()
	assert.False(t, ok, "no URL is absent")
	assert.Equal(t, "", url)
	desc, ok := nourl.Desc()
	assert.True(t, ok)
	assert.Equal(t, "A package without an upstream URL", desc)

	emptydesc := localPkg(t, h, "emptydesc")
	desc, ok = emptydesc.Desc()
	assert.True(t, ok, "an empty description is present")
	assert.Equal(t, "", desc)
	url, ok = emptydesc.URL()
	assert.True(t, ok)
	assert.Equal(t, "https://example.org/emptydesc", url)

	_, ok = emptydesc.InstallDate()
	assert.False(t, ok, "zero install date is absent")
	_, ok = emptydesc.Packager()
	assert.False(t, ok)
	assert.Equal(t, "", emptydesc.Filename())
}

func TestLocalPackageFields(t *testing.T) {
	h, _ := newHandle(t)
	p := localPkg(t, h, "pacman")

	assert.Equal(t, "pacman", p.Name())
	assert.Equal(t, alpm.Ver("6.1.0-3"), p.Version())
	base, ok := p.Base()
	require.True(t, ok)
	assert.Equal(t, "pacman", base)
	arch, _ := p.Arch()
	assert.Equal(t, "x86_64", arch)
	packager, _ := p.Packager()
	assert.Equal(t, "Morten Linderud <foxboron@archlinux.org>", packager)
	assert.Equal(t, time.Unix(1710000000, 0), p.BuildDate())
	installed, ok := p.InstallDate()
	require.True(t, ok)
	assert.Equal(t, time.Unix(1710100000, 0), installed)
	assert.Equal(t, int64(4718592), p.ISize())

	origin, err := p.Origin()
	require.NoError(t, err)
	assert.Equal(t, alpm.FromLocalDB, origin)
	reason, err := p.Reason()
	require.NoError(t, err)
	assert.Equal(t, alpm.ReasonExplicit, reason)
	validation, err := p.Validation()
	require.NoError(t, err)
	assert.Equal(t, alpm.ValidationSignature, validation)

	assert.Equal(t, []string{"GPL-2.0-or-later"}, p.Licenses().Slice())
	assert.True(t, p.Groups().IsEmpty())

	names := func(l alpm.List[alpm.Dep]) []string {
		var out []string
		for d := range l.All() {
			out = append(out, d.String())
		}
		return out
	}
	assert.Equal(t, []string{"meson", "asciidoc"}, names(p.MakeDepends()))
	assert.Equal(t, []string{"python", "fakechroot"}, names(p.CheckDepends()))
	assert.Equal(t, []string{"libalpm.so=14-64"}, names(p.Provides()))
	assert.True(t, p.Conflicts().IsEmpty())
	assert.True(t, p.Replaces().IsEmpty())

	opt, ok := p.OptDepends().First()
	require.True(t, ok)
	assert.Equal(t, "perl-locale-gettext", opt.Name())
	optDesc, ok := opt.Desc()
	require.True(t, ok)
	assert.Equal(t, "translation support in makepkg-template", optDesc)

	db, ok := p.DB()
	require.True(t, ok)
	assert.Equal(t, "local", db.Name())

	bash := localPkg(t, h, "bash")
	reason, err = bash.Reason()
	require.NoError(t, err)
	assert.Equal(t, alpm.ReasonDepend, reason)
	validation, err = localPkg(t, h, "filesystem").Validation()
	require.NoError(t, err)
	assert.Equal(t, alpm.ValidationSHA256Sum|alpm.ValidationSignature, validation)
}

func TestSyncPackageFields(t *testing.T) {
	h, _ := withSyncDBs(t)
	p := syncPkg(t, h, "core", "pacman")

	assert.Equal(t, "pacman-6.1.0-3-x86_64.pkg.tar.zst", p.Filename())
	assert.Equal(t, int64(905226), p.Size())
	assert.Equal(t, int64(4718592), p.ISize())
	origin, err := p.Origin()
	require.NoError(t, err)
	assert.Equal(t, alpm.FromSyncDB, origin)
	sum, ok := p.SHA256Sum()
	require.True(t, ok)
	assert.Len(t, sum, 64)
	_, ok = p.InstallDate()
	assert.False(t, ok)

	vim := syncPkg(t, h, "extra", "vim")
	replaces, ok := vim.Replaces().First()
	require.True(t, ok)
	assert.Equal(t, "gvim<9", replaces.String())
	dep, err := replaces.ToDepend()
	require.NoError(t, err)
	assert.Equal(t, alpm.DepModLT, dep.Mod())
}

func TestBackup(t *testing.T) {
	h, _ := newHandle(t)
	p := localPkg(t, h, "pacman")

	var names []string
	for b := range p.Backup().All() {
		names = append(names, b.Name())
		hash, ok := b.Hash()
		assert.True(t, ok)
		assert.Len(t, hash, 32)
	}
	assert.Equal(t, []string{"etc/makepkg.conf", "etc/pacman.conf"}, names)
	assert.True(t, localPkg(t, h, "nourl").Backup().IsEmpty())
}

func TestFileListContains(t *testing.T) {
	h, _ := newHandle(t)
	files := localPkg(t, h, "pacman").Files()

	f, ok, err := files.Contains("usr/bin/pacman")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "usr/bin/pacman", f.Name)

	f, ok, err = files.Contains("etc/")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "etc/", f.Name)

	_, ok, err = files.Contains("usr/bin/yay")
	require.NoError(t, err, "a missing path is not an error")
	assert.False(t, ok)

	_, ok, err = files.Contains("usr/bin")
	require.NoError(t, err)
	assert.False(t, ok, "lookups are exact")

	_, _, err = files.Contains("usr/bin/\x00pacman")
	require.ErrorIs(t, err, alpm.ErrNulByte)
}

func TestFileListOrderAndEmpty(t *testing.T) {
	h, _ := withSyncDBs(t)
	files := localPkg(t, h, "filesystem").Files()
	assert.Equal(t, 6, files.Len())

	var names []string
	for f := range files.All() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"bin", "etc/", "etc/fstab", "etc/hosts", "usr/", "usr/bin/"}, names)
	assert.Equal(t, len(names), len(files.Files()))

	none := localPkg(t, h, "nourl").Files()
	assert.Equal(t, 0, none.Len())
	assert.NotNil(t, none.Files())
	assert.Empty(t, none.Files())
	_, ok, err := none.Contains("anything")
	require.NoError(t, err)
	assert.False(t, ok)

	var zero alpm.FileList
	assert.Equal(t, 0, zero.Len())
	assert.Empty(t, zero.Files())
}

func TestChangelog(t *testing.T) {
	h, _ := newHandle(t)
	c, err := localPkg(t, h, "vifm").Changelog()
	require.NoError(t, err)
	body, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.Equal(t, "2023-06-25  vifm 0.13-1\n\t* new upstream release\n", string(body))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = localPkg(t, h, "pacman").Changelog()
	require.ErrorIs(t, err, alpm.ErrPkgOpen)
}

func TestChangelogCloseAfterRelease(t *testing.T) {
	h, _ := newHandle(t)
	c, err := localPkg(t, h, "vifm").Changelog()
	require.NoError(t, err)
	require.NoError(t, h.Release())
	assert.NotPanics(t, func() { _ = c.Close() })
}

func TestHasScriptlet(t *testing.T) {
	h, _ := newHandle(t)
	assert.True(t, localPkg(t, h, "vifm").HasScriptlet())
	assert.False(t, localPkg(t, h, "pacman").HasScriptlet())
}

func TestRequiredByAndOptionalFor(t *testing.T) {
	h, _ := withSyncDBs(t)

	local := localPkg(t, h, "bash").RequiredBy()
	defer local.Close()
	assert.Equal(t, []string{"pacman"}, local.Slice())

	sync := syncPkg(t, h, "core", "bash").RequiredBy()
	assert.Equal(t, []string{"hello", "pacman", "vim"}, sync.Detach())
	assert.True(t, sync.IsEmpty(), "detached lists are empty")

	opt := syncPkg(t, h, "extra", "vim").OptionalFor()
	assert.Equal(t, []string{"firefox", "vifm"}, opt.Slice())
	require.NoError(t, opt.Close())
	require.NoError(t, opt.Close())
	assert.Equal(t, 0, opt.Len())

	none := localPkg(t, h, "nourl").RequiredBy()
	assert.True(t, none.IsEmpty())
}

func TestOwnedListOutlivesHandle(t *testing.T) {
	h, _ := withSyncDBs(t)
	l := syncPkg(t, h, "core", "bash").RequiredBy()
	require.NoError(t, h.Release())
	assert.Equal(t, 3, l.Len())
	require.NoError(t, l.Close())
}

func TestSignature(t *testing.T) {
	h, _ := withSyncDBs(t)
	p := syncPkg(t, h, "core", "pacman")

	enc, ok := p.Base64Sig()
	require.True(t, ok)
	sig, err := p.Sig()
	require.NoError(t, err)
	want, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	assert.Equal(t, want, sig.Bytes())
	assert.Equal(t, len(want), sig.Len())

	b := sig.Bytes()
	b[0] ^= 0xff
	assert.Equal(t, want, sig.Bytes(), "Bytes returns a copy")

	_, err = syncPkg(t, h, "core", "bash").Sig()
	require.ErrorIs(t, err, alpm.ErrSigMissing)
	_, err = syncPkg(t, h, "core", "broken").Sig()
	require.ErrorIs(t, err, alpm.ErrSigInvalid)
}

func TestCheckMD5Sum(t *testing.T) {
	h, _ := withSyncDBs(t)
	require.NoError(t, syncPkg(t, h, "core", "hello").CheckMD5Sum())
	require.ErrorIs(t, syncPkg(t, h, "core", "broken").CheckMD5Sum(), alpm.ErrPkgInvalid)
	require.ErrorIs(t, syncPkg(t, h, "core", "bash").CheckMD5Sum(), alpm.ErrPkgNotFound)
}

func TestShouldIgnore(t *testing.T) {
	h, _ := withSyncDBs(t)
	require.NoError(t, h.SetIgnorePkgs([]string{"pacman*"}))
	require.NoError(t, h.SetIgnoreGroups([]string{"editors"}))

	assert.True(t, syncPkg(t, h, "core", "pacman").ShouldIgnore())
	assert.True(t, syncPkg(t, h, "core", "pacman-mirrorlist").ShouldIgnore())
	assert.True(t, syncPkg(t, h, "extra", "vim").ShouldIgnore())
	assert.False(t, syncPkg(t, h, "extra", "vifm").ShouldIgnore())
}

func TestLoadPkg(t *testing.T) {
	h, tr := newHandle(t)
	path := writeHello(t, tr.Root)

	lp, err := h.LoadPkg(path, true, 0)
	require.NoError(t, err)
	defer lp.Close()

	assert.Equal(t, "hello", lp.Name())
	assert.Equal(t, alpm.Ver("1.0-1"), lp.Version())
	assert.Equal(t, path, lp.Filename())
	origin, err := lp.Origin()
	require.NoError(t, err)
	assert.Equal(t, alpm.FromFile, origin)
	_, ok := lp.DB()
	assert.False(t, ok)
	assert.True(t, lp.HasScriptlet())

	var names []string
	for f := range lp.Files().All() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"etc/", "etc/hello.conf", "usr/", "usr/bin/", "usr/bin/hello"}, names)

	b, ok := lp.Backup().First()
	require.True(t, ok)
	assert.Equal(t, "etc/hello.conf", b.Name())
	_, ok = b.Hash()
	assert.False(t, ok)

	c, err := lp.Changelog()
	require.NoError(t, err)
	var buf bytes.Buffer
	_, err = io.Copy(&buf, c)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.Equal(t, "1.0-1: first release\n", buf.String())

	required := lp.RequiredBy()
	assert.True(t, required.IsEmpty())
	required.Close()
}

func TestLoadPkgMetadataOnly(t *testing.T) {
	h, tr := newHandle(t)
	lp, err := h.LoadPkg(writeHello(t, tr.Root), false, 0)
	require.NoError(t, err)
	defer lp.Close()

	assert.Equal(t, "hello", lp.Name())
	assert.Equal(t, 0, lp.Files().Len())
}

func TestLoadPkgErrors(t *testing.T) {
	h, tr := newHandle(t)

	_, err := h.LoadPkg(filepath.Join(tr.Root, "missing.pkg.tar.zst"), true, 0)
	require.ErrorIs(t, err, alpm.ErrPkgNotFound)

	path := writeHello(t, tr.Root)
	_, err = h.LoadPkg(path, true, alpm.SigPackage)
	require.ErrorIs(t, err, alpm.ErrPkgMissingSig)

	junk := filepath.Join(tr.Root, "junk.pkg.tar")
	require.NoError(t, os.WriteFile(junk, []byte("not an archive"), 0o644))
	_, err = h.LoadPkg(junk, true, 0)
	require.ErrorIs(t, err, alpm.ErrPkgInvalid)

	_, err = h.LoadPkg("a\x00b", true, 0)
	require.ErrorIs(t, err, alpm.ErrNulByte)
}

func TestLoadedPackageViewsKeepItAlive(t *testing.T) {
	h, tr := newHandle(t)
	lp, err := h.LoadPkg(writeHello(t, tr.Root), true, 0)
	require.NoError(t, err)
	pkg := lp.Package
	deps := lp.Depends()
	c, err := lp.Changelog()
	require.NoError(t, err)

	lp = nil
	for i := 0; i < 5; i++ {
		runtime.GC()
	}

	assert.Equal(t, "hello", pkg.Name())
	assert.Equal(t, 2, deps.Len())
	_, found, err := pkg.Files().Contains("usr/bin/hello")
	require.NoError(t, err)
	assert.True(t, found)
	body, err := io.ReadAll(c)
	require.NoError(t, err)
	assert.Equal(t, "1.0-1: first release\n", string(body))
	require.NoError(t, c.Close())
}

func TestLoadedPackageLifetime(t *testing.T) {
	h, tr := newHandle(t)
	lp, err := h.LoadPkg(writeHello(t, tr.Root), true, 0)
	require.NoError(t, err)
	deps := lp.Depends()
	pkg := lp.Package

	require.NoError(t, h.UnregisterAllSyncDBs())
	assert.NotPanics(t, func() { deps.Len() }, "loaded packages do not follow the database epoch")

	require.NoError(t, lp.Close())
	require.NoError(t, lp.Close())
	assert.PanicsWithValue(t, alpm.ErrStaleView, func() { pkg.Name() })
	assert.PanicsWithValue(t, alpm.ErrStaleView, func() { deps.Len() })
}
