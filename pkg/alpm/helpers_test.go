package alpm_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pacwrap/alpm-go/pkg/alpm"
	"github.com/pacwrap/alpm-go/pkg/alpm/internal/alpmtest"
	"github.com/pacwrap/alpm-go/pkg/alpm/logging"
)

func newHandle(t *testing.T) (*alpm.Alpm, *alpmtest.Tree) {
	t.Helper()
	tr := alpmtest.New(t)
	h, err := alpm.New(tr.Root, tr.DBPath, alpm.WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Release() })
	return h, tr
}

// withSyncDBs registers core and extra without signature checking.
func withSyncDBs(t *testing.T) (*alpm.Alpm, *alpmtest.Tree) {
	t.Helper()
	h, tr := newHandle(t)
	for _, name := range []string{"core", "extra"} {
		_, err := h.RegisterSyncDB(name, 0)
		require.NoError(t, err)
	}
	require.NoError(t, h.SetCacheDirs([]string{tr.Cache}))
	return h, tr
}

func localPkg(t *testing.T, h *alpm.Alpm, name string) alpm.Package {
	t.Helper()
	p, ok, err := h.LocalDB().Pkg(name)
	require.NoError(t, err)
	require.True(t, ok, "package %s not in local db", name)
	return p
}

func syncPkg(t *testing.T, h *alpm.Alpm, db, name string) alpm.Package {
	t.Helper()
	d, ok := h.SyncDB(db)
	require.True(t, ok, "sync db %s not registered", db)
	p, ok, err := d.Pkg(name)
	require.NoError(t, err)
	require.True(t, ok, "package %s not in %s", name, db)
	return p
}

func canonical(t *testing.T, dir string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	return resolved + "/"
}
