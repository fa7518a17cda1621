package alpm_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

func TestTransRemovePkg(t *testing.T) {
	h, _ := withSyncDBs(t)
	vifm := localPkg(t, h, "vifm")

	require.ErrorIs(t, h.TransRemovePkg(vifm), alpm.ErrTransNull)

	require.NoError(t, h.TransInit(alpm.TransCascade|alpm.TransRecurse))
	flags, err := h.TransFlags()
	require.NoError(t, err)
	assert.Equal(t, alpm.TransCascade|alpm.TransRecurse, flags)
	_, err = os.Stat(h.Lockfile())
	require.NoError(t, err, "the transaction holds the lock")

	require.NoError(t, h.TransRemovePkg(vifm))
	require.NoError(t, h.TransRemovePkg(localPkg(t, h, "nourl")))

	err = h.TransRemovePkg(vifm)
	var e *alpm.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, alpm.ErrTransDupTarget, e.Code)

	require.ErrorIs(t, h.TransRemovePkg(syncPkg(t, h, "extra", "vim")), alpm.ErrWrongArgs)

	var targets []string
	for p := range h.TransRemove().All() {
		targets = append(targets, p.Name())
	}
	assert.Equal(t, []string{"vifm", "nourl"}, targets)

	queued := h.TransRemove()
	require.NoError(t, h.TransRelease())
	assert.PanicsWithValue(t, alpm.ErrStaleView, func() { queued.Len() })
	assert.Equal(t, "vifm", vifm.Name(), "packages survive the transaction")
	assert.True(t, h.TransRemove().IsEmpty())

	_, err = os.Stat(h.Lockfile())
	assert.True(t, os.IsNotExist(err))
	require.ErrorIs(t, h.TransRelease(), alpm.ErrTransNull)
}

func TestTransInitLocked(t *testing.T) {
	h, _ := newHandle(t)
	require.NoError(t, os.WriteFile(h.Lockfile(), nil, 0o644))

	require.ErrorIs(t, h.TransInit(0), alpm.ErrHandleLock)
	require.NoError(t, h.TransInit(alpm.TransNoLock))
	require.ErrorIs(t, h.TransInit(alpm.TransNoLock), alpm.ErrTransNotNull)
	require.NoError(t, h.TransRelease())
	_, err := os.Stat(h.Lockfile())
	require.NoError(t, err, "a no-lock transaction leaves the lock alone")
}

func TestTransBlocksUnregister(t *testing.T) {
	h, _ := withSyncDBs(t)
	require.NoError(t, h.TransInit(0))
	require.ErrorIs(t, h.UnregisterAllSyncDBs(), alpm.ErrTransNotNull)
	require.NoError(t, h.TransRelease())
	require.NoError(t, h.UnregisterAllSyncDBs())
}

func TestReleaseDropsOpenTransaction(t *testing.T) {
	h, _ := newHandle(t)
	require.NoError(t, h.TransInit(0))
	lock := h.Lockfile()
	require.NoError(t, h.Release())
	_, err := os.Stat(lock)
	assert.True(t, os.IsNotExist(err))
}

func TestTransRemovePkgForeignHandle(t *testing.T) {
	a, _ := newHandle(t)
	b, _ := newHandle(t)
	require.NoError(t, b.TransInit(alpm.TransNoLock))
	defer b.TransRelease()

	require.ErrorIs(t, b.TransRemovePkg(localPkg(t, a, "vifm")), alpm.ErrForeignHandle)
	require.ErrorIs(t, b.TransRemovePkg(alpm.Package{}), alpm.ErrForeignHandle)
}

func TestTransFlagsRejectUnknownBits(t *testing.T) {
	h, _ := newHandle(t)
	var flagErr *alpm.FlagError
	require.ErrorAs(t, h.TransInit(1<<1), &flagErr)
	_, err := h.TransFlags()
	require.ErrorIs(t, err, alpm.ErrTransNull)
}

func TestRejectedMutationKeepsViews(t *testing.T) {
	h, _ := withSyncDBs(t)
	core, ok := h.SyncDB("core")
	require.True(t, ok)
	vifm := localPkg(t, h, "vifm")
	pacman := syncPkg(t, h, "core", "pacman")
	servers := core.Servers()

	require.NoError(t, h.TransInit(alpm.TransNoLock))
	require.NoError(t, h.TransRemovePkg(vifm))
	queued := h.TransRemove()

	require.ErrorIs(t, h.UnregisterAllSyncDBs(), alpm.ErrTransNotNull)
	require.ErrorIs(t, core.Unregister(), alpm.ErrTransNotNull)
	require.ErrorIs(t, core.AddServer(""), alpm.ErrWrongArgs)
	removed, err := core.RemoveServer("https://nowhere.example")
	require.NoError(t, err)
	assert.False(t, removed)
	require.ErrorIs(t, h.TransRemovePkg(pacman), alpm.ErrWrongArgs)
	require.ErrorIs(t, h.TransRemovePkg(vifm), alpm.ErrTransDupTarget)

	assert.Equal(t, "vifm", vifm.Name())
	assert.Equal(t, "core", core.Name())
	assert.Equal(t, "pacman", pacman.Name())
	assert.Equal(t, 0, servers.Len())
	assert.Equal(t, 1, queued.Len())

	require.NoError(t, h.TransRelease())
	require.ErrorIs(t, h.TransRelease(), alpm.ErrTransNull)
	assert.PanicsWithValue(t, alpm.ErrStaleView, func() { queued.Len() })
	assert.Equal(t, "vifm", vifm.Name())
}
