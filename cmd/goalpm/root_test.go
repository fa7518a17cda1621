package main

import (
	"archive/tar"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	root   string
	dbpath string
	config string
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

const fooDesc = `%NAME%
foo

%VERSION%
1.0-1

%DESC%
The foo tool

%ARCH%
x86_64

%BUILDDATE%
1700000000

%INSTALLDATE%
1700100000

%SIZE%
2097152

%REASON%
0

%LICENSE%
MIT

%PROVIDES%
libfoo.so=1-64

%VALIDATION%
sha256
`

const barDesc = `%NAME%
bar

%VERSION%
2.0-1

%DESC%
Needs foo

%BUILDDATE%
1700000000

%INSTALLDATE%
1700100000

%SIZE%
1024

%REASON%
1

%DEPENDS%
foo>=1.0
libfoo.so
qux

%OPTDEPENDS%
foo: extra output
`

const bazDesc = `%FILENAME%
baz-3.1-1-x86_64.pkg.tar.zst

%NAME%
baz

%VERSION%
3.1-1

%DESC%
Only in core

%CSIZE%
1536

%ISIZE%
8192

%BUILDDATE%
1700000000

%DEPENDS%
foo<1.0
`

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{root: root, dbpath: filepath.Join(root, "var", "lib", "pacman")}

	local := filepath.Join(f.dbpath, "local")
	writeFile(t, filepath.Join(local, "ALPM_DB_VERSION"), "9\n")
	writeFile(t, filepath.Join(local, "foo-1.0-1", "desc"), fooDesc)
	writeFile(t, filepath.Join(local, "foo-1.0-1", "files"), "%FILES%\nusr/\nusr/bin/\nusr/bin/foo\n\n")
	writeFile(t, filepath.Join(local, "bar-2.0-1", "desc"), barDesc)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: "baz-3.1-1/desc", Mode: 0o644, Size: int64(len(bazDesc))}))
	_, err := tw.Write([]byte(bazDesc))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	writeFile(t, filepath.Join(f.dbpath, "sync", "core.db"), buf.String())

	f.config = filepath.Join(t.TempDir(), "goalpm.yaml")
	writeFile(t, f.config, `
root: `+root+`
dbpath: `+f.dbpath+`
siglevel: [Never]
ignore_pkgs: [linux]
repos:
  - name: core
    servers: [https://mirror.example.org/core/os/x86_64]
`)
	return f
}

func (f fixture) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs(append([]string{"--config", f.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *exitError
	require.ErrorAs(t, err, &exitErr)
	return exitErr.code
}

func TestInfoLocal(t *testing.T) {
	out, _, err := newFixture(t).run(t, "info", "foo")
	require.NoError(t, err)
	for _, want := range []string{"foo", "1.0-1", "The foo tool", "libfoo.so=1-64", "MIT", "2.0 MiB", "SHA-256 Sum", "Explicitly installed"} {
		assert.Contains(t, out, want)
	}
	assert.Regexp(t, `Required By\s*: bar`, out)
	assert.Regexp(t, `Optional For\s*: bar`, out)
	assert.NotContains(t, out, "Repository")
}

func TestInfoSync(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run(t, "info", "--sync", "baz")
	require.NoError(t, err)
	assert.Regexp(t, `Repository\s*: core`, out)
	assert.Contains(t, out, "1.5 KiB")
	assert.Regexp(t, `Depends On\s*: foo<1.0`, out)

	_, _, err = f.run(t, "info", "--sync", "foo")
	assert.Equal(t, 2, exitCode(t, err))
}

func TestInfoNotFound(t *testing.T) {
	_, _, err := newFixture(t).run(t, "info", "foo", "nothere")
	assert.Equal(t, 2, exitCode(t, err))
}

func TestFiles(t *testing.T) {
	f := newFixture(t)
	rootDir := f.root + "/"
	if resolved, err := filepath.EvalSymlinks(f.root); err == nil {
		rootDir = resolved + "/"
	}

	out, _, err := f.run(t, "files", "foo")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"foo " + rootDir + "usr/",
		"foo " + rootDir + "usr/bin/",
		"foo " + rootDir + "usr/bin/foo",
	}, strings.Split(strings.TrimSpace(out), "\n"))

	out, _, err = f.run(t, "files", "foo", "/usr/bin/foo")
	require.NoError(t, err)
	assert.Contains(t, out, "usr/bin/foo is owned by foo 1.0-1")

	_, _, err = f.run(t, "files", "foo", "/usr/bin/bar")
	assert.Equal(t, 1, exitCode(t, err))

	_, _, err = f.run(t, "files", "baz")
	assert.Equal(t, 2, exitCode(t, err))
}

func TestDeps(t *testing.T) {
	out, _, err := newFixture(t).run(t, "deps", "bar")
	require.NoError(t, err)
	assert.Contains(t, out, "[x] foo>=1.0")
	assert.Contains(t, out, "[x] libfoo.so")
	assert.Contains(t, out, "[ ] qux")
	assert.Contains(t, out, "[x] foo: extra output")
	assert.NotContains(t, out, "makedepends")

	out, _, err = newFixture(t).run(t, "deps", "--sync", "baz")
	require.NoError(t, err)
	assert.Contains(t, out, "[ ] foo<1.0")
}

func TestOptions(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run(t, "options")
	require.NoError(t, err)
	assert.Contains(t, out, "var/lib/pacman/")
	assert.Regexp(t, `IgnorePkg\s*: linux`, out)
	assert.Regexp(t, `Repository\s*: core`, out)
	assert.Contains(t, out, "https://mirror.example.org/core/os/x86_64")
	assert.Regexp(t, `ParallelDL\s*: 1`, out)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	lock := filepath.Join(f.dbpath, "db.lck")

	out, _, err := f.run(t, "remove", "bar", "foo", "bar")
	require.NoError(t, err)
	assert.Contains(t, out, "bar-2.0-1")
	assert.Contains(t, out, "foo-1.0-1")
	assert.Contains(t, out, "(2)")
	_, err = os.Stat(lock)
	assert.True(t, os.IsNotExist(err), "the lock is released")

	_, _, err = f.run(t, "remove", "nothere")
	assert.Equal(t, 2, exitCode(t, err))

	writeFile(t, lock, "")
	_, _, err = f.run(t, "remove", "foo")
	assert.Equal(t, 3, exitCode(t, err))

	out, _, err = f.run(t, "remove", "--nolock", "foo")
	require.NoError(t, err)
	assert.Contains(t, out, "foo-1.0-1")
	_, err = os.Stat(lock)
	require.NoError(t, err)
}

func TestMetrics(t *testing.T) {
	out, _, err := newFixture(t).run(t, "metrics")
	require.NoError(t, err)
	assert.Contains(t, out, `alpm_db_packages{db="local"} 2`)
	assert.Contains(t, out, `alpm_db_packages{db="core"} 1`)
	assert.Contains(t, out, `alpm_db_servers{db="core"} 1`)
	assert.Contains(t, out, `alpm_local_packages{reason="depend"} 1`)
	assert.Contains(t, out, "# TYPE alpm_scrape_errors_total counter")
}

func TestWaitLock(t *testing.T) {
	f := newFixture(t)
	out, _, err := f.run(t, "wait-lock")
	require.NoError(t, err)
	assert.Contains(t, out, "unlocked")

	writeFile(t, filepath.Join(f.dbpath, "db.lck"), "")
	_, _, err = f.run(t, "wait-lock", "--timeout", "50ms")
	assert.Equal(t, 3, exitCode(t, err))
}

func TestBadConfig(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand(&stdout, &stderr)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "options"})
	require.Error(t, cmd.ExecuteContext(context.Background()))
}
