package alpm_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacwrap/alpm-go/pkg/alpm"
)

type stringOption struct {
	name   string
	get    func(*alpm.Alpm) alpm.List[string]
	add    func(*alpm.Alpm, string) error
	set    func(*alpm.Alpm, []string) error
	remove func(*alpm.Alpm, string) (bool, error)
	// dir options are stored with a trailing slash.
	dir bool
}

func stringOptions() []stringOption {
	return []stringOption{
		{"hookdirs", (*alpm.Alpm).HookDirs, (*alpm.Alpm).AddHookDir, (*alpm.Alpm).SetHookDirs, (*alpm.Alpm).RemoveHookDir, true},
		{"cachedirs", (*alpm.Alpm).CacheDirs, (*alpm.Alpm).AddCacheDir, (*alpm.Alpm).SetCacheDirs, (*alpm.Alpm).RemoveCacheDir, true},
		{"noupgrades", (*alpm.Alpm).NoUpgrades, (*alpm.Alpm).AddNoUpgrade, (*alpm.Alpm).SetNoUpgrades, (*alpm.Alpm).RemoveNoUpgrade, false},
		{"noextracts", (*alpm.Alpm).NoExtracts, (*alpm.Alpm).AddNoExtract, (*alpm.Alpm).SetNoExtracts, (*alpm.Alpm).RemoveNoExtract, false},
		{"ignorepkgs", (*alpm.Alpm).IgnorePkgs, (*alpm.Alpm).AddIgnorePkg, (*alpm.Alpm).SetIgnorePkgs, (*alpm.Alpm).RemoveIgnorePkg, false},
		{"ignoregroups", (*alpm.Alpm).IgnoreGroups, (*alpm.Alpm).AddIgnoreGroup, (*alpm.Alpm).SetIgnoreGroups, (*alpm.Alpm).RemoveIgnoreGroup, false},
		{"overwritefiles", (*alpm.Alpm).OverwriteFiles, (*alpm.Alpm).AddOverwriteFile, (*alpm.Alpm).SetOverwriteFiles, (*alpm.Alpm).RemoveOverwriteFile, false},
		{"architectures", (*alpm.Alpm).Architectures, (*alpm.Alpm).AddArchitecture, (*alpm.Alpm).SetArchitectures, (*alpm.Alpm).RemoveArchitecture, false},
	}
}

func (o stringOption) values(items ...string) []string {
	if !o.dir {
		return items
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = s + "/"
	}
	return out
}

func TestStringListOptionsRoundTrip(t *testing.T) {
	for _, o := range stringOptions() {
		t.Run(o.name, func(t *testing.T) {
			h, _ := newHandle(t)
			in := o.values("/a", "/b", "/c")
			require.NoError(t, o.set(h, in))
			assert.Equal(t, in, o.get(h).Slice())

			require.NoError(t, o.set(h, nil))
			assert.True(t, o.get(h).IsEmpty())
			assert.Empty(t, o.get(h).Slice())
		})
	}
}

func TestStringListOptionsKeepInsertionOrder(t *testing.T) {
	for _, o := range stringOptions() {
		t.Run(o.name, func(t *testing.T) {
			h, _ := newHandle(t)
			require.NoError(t, o.set(h, nil))

			for _, v := range []string{"/z", "/m", "/a", "/q"} {
				require.NoError(t, o.add(h, v))
			}
			assert.Equal(t, o.values("/z", "/m", "/a", "/q"), o.get(h).Slice())
			assert.Equal(t, 4, o.get(h).Len())

			removed, err := o.remove(h, "/m")
			require.NoError(t, err)
			assert.True(t, removed)
			assert.Equal(t, o.values("/z", "/a", "/q"), o.get(h).Slice())

			removed, err = o.remove(h, "/not-there")
			require.NoError(t, err, "a missing element is not an error")
			assert.False(t, removed)
			assert.Equal(t, o.values("/z", "/a", "/q"), o.get(h).Slice())

			first, ok := o.get(h).First()
			require.True(t, ok)
			assert.Equal(t, o.values("/z")[0], first)
		})
	}
}

func TestSetListWithNulByteChangesNothing(t *testing.T) {
	for _, o := range stringOptions() {
		t.Run(o.name, func(t *testing.T) {
			h, _ := newHandle(t)
			before := o.values("/keep")
			require.NoError(t, o.set(h, before))

			err := o.set(h, []string{"/ok", "/bad\x00", "/also-ok"})
			var nulErr *alpm.NulError
			require.ErrorAs(t, err, &nulErr)
			assert.Equal(t, 4, nulErr.Pos)
			assert.ErrorIs(t, err, alpm.ErrNulByte)
			assert.Equal(t, before, o.get(h).Slice())

			require.ErrorIs(t, o.add(h, "x\x00"), alpm.ErrNulByte)
			_, err = o.remove(h, "x\x00")
			require.ErrorIs(t, err, alpm.ErrNulByte)
			assert.Equal(t, before, o.get(h).Slice())
		})
	}
}

func TestListIterationIsRestartable(t *testing.T) {
	h, _ := newHandle(t)
	require.NoError(t, h.SetArchitectures([]string{"x86_64", "x86_64_v3"}))
	l := h.Architectures()

	var first, second []string
	for s := range l.All() {
		first = append(first, s)
	}
	for s := range l.All() {
		second = append(second, s)
	}
	assert.Equal(t, first, second)

	for s := range l.All() {
		assert.Equal(t, "x86_64", s)
		break
	}
}

func TestMutationInvalidatesOnlyThatList(t *testing.T) {
	h, _ := newHandle(t)
	require.NoError(t, h.SetIgnorePkgs([]string{"linux"}))
	ignored := h.IgnorePkgs()
	arches := h.Architectures()
	db := h.LocalDB()

	require.NoError(t, h.AddIgnorePkg("linux-lts"))

	assert.PanicsWithValue(t, alpm.ErrStaleView, func() { ignored.Len() })
	assert.NotPanics(t, func() { arches.Len() })
	assert.NotPanics(t, func() { db.Name() })
	assert.Equal(t, []string{"linux", "linux-lts"}, h.IgnorePkgs().Slice())
}

func TestZeroDependRejected(t *testing.T) {
	h, _ := newHandle(t)
	d, err := alpm.NewDepend("sh=5.2")
	require.NoError(t, err)

	require.ErrorIs(t, h.AddAssumeInstalled(alpm.Depend{}), alpm.ErrWrongArgs)
	require.ErrorIs(t, h.SetAssumeInstalled([]alpm.Depend{d, {}}), alpm.ErrWrongArgs)
	_, err = h.RemoveAssumeInstalled(alpm.Depend{})
	require.ErrorIs(t, err, alpm.ErrWrongArgs)
	assert.Equal(t, 0, h.AssumeInstalled().Len())
}

func TestFailedListMutationKeepsViews(t *testing.T) {
	h, tr := newHandle(t)
	require.NoError(t, h.SetCacheDirs([]string{tr.Cache}))
	caches := h.CacheDirs()
	ignored := h.IgnorePkgs()

	require.ErrorIs(t, h.AddCacheDir(""), alpm.ErrWrongArgs)
	removed, err := h.RemoveIgnorePkg("linux")
	require.NoError(t, err)
	assert.False(t, removed)

	assert.Equal(t, 1, caches.Len())
	assert.Equal(t, 0, ignored.Len())

	removed, err = h.RemoveCacheDir(tr.Cache)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.PanicsWithValue(t, alpm.ErrStaleView, func() { caches.Len() })
}

func TestDefaultHookDir(t *testing.T) {
	h, tr := newHandle(t)
	assert.Equal(t, []string{canonical(t, tr.Root) + "usr/share/libalpm/hooks/"}, h.HookDirs().Slice())
}

func TestAssumeInstalled(t *testing.T) {
	h, _ := newHandle(t)
	var deps []alpm.Depend
	for _, s := range []string{"sh=5.2", "java-runtime=21", "libfoo.so>=1"} {
		d, err := alpm.NewDepend(s)
		require.NoError(t, err)
		deps = append(deps, d)
	}
	require.NoError(t, h.SetAssumeInstalled(deps[:2]))
	require.NoError(t, h.AddAssumeInstalled(deps[2]))

	var got []string
	for d := range h.AssumeInstalled().All() {
		got = append(got, d.String())
	}
	assert.Equal(t, []string{"sh=5.2", "java-runtime=21", "libfoo.so>=1"}, got)

	removed, err := h.RemoveAssumeInstalled(deps[1])
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = h.RemoveAssumeInstalled(deps[1])
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 2, h.AssumeInstalled().Len())
}

func TestMatchNoUpgrade(t *testing.T) {
	h, _ := newHandle(t)
	require.NoError(t, h.SetNoUpgrades([]string{"etc/*", "!etc/pacman.conf"}))

	for path, want := range map[string]alpm.Match{
		"etc/makepkg.conf": alpm.MatchYes,
		"etc/pacman.conf":  alpm.MatchInverted,
		"usr/bin/pacman":   alpm.MatchNo,
	} {
		got, err := h.MatchNoUpgrade(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}

	require.NoError(t, h.SetNoExtracts([]string{"usr/share/locale/*"}))
	got, err := h.MatchNoExtract("usr/share/locale/de/LC_MESSAGES/pacman.mo")
	require.NoError(t, err)
	assert.Equal(t, alpm.MatchYes, got)

	_, err = h.MatchNoExtract("a\x00b")
	require.ErrorIs(t, err, alpm.ErrNulByte)
}

func TestSigLevelRoundTrip(t *testing.T) {
	h, _ := newHandle(t)
	bits := []alpm.SigLevel{
		alpm.SigPackage, alpm.SigPackageOptional, alpm.SigPackageMarginalOK, alpm.SigPackageUnknownOK,
		alpm.SigDatabase, alpm.SigDatabaseOptional, alpm.SigDatabaseMarginal, alpm.SigDatabaseUnknownOK,
	}
	for mask := 0; mask < 1<<len(bits); mask++ {
		var level alpm.SigLevel
		for i, b := range bits {
			if mask&(1<<i) != 0 {
				level |= b
			}
		}
		require.NoError(t, h.SetDefaultSigLevel(level))
		got, err := h.DefaultSigLevel()
		require.NoError(t, err)
		require.Equal(t, level, got, level.String())

		for _, l := range []alpm.SigLevel{level, alpm.SigUseDefault} {
			require.NoError(t, h.SetLocalFileSigLevel(l))
			got, err = h.LocalFileSigLevel()
			require.NoError(t, err)
			require.Equal(t, l, got)

			require.NoError(t, h.SetRemoteFileSigLevel(l))
			got, err = h.RemoteFileSigLevel()
			require.NoError(t, err)
			require.Equal(t, l, got)
		}
	}
}

func TestSigLevelRejectsUnknownBits(t *testing.T) {
	h, _ := newHandle(t)
	require.NoError(t, h.SetDefaultSigLevel(alpm.SigPackage))

	err := h.SetDefaultSigLevel(alpm.SigPackage | 1<<20)
	var flagErr *alpm.FlagError
	require.ErrorAs(t, err, &flagErr)
	assert.Equal(t, uint64(1<<20), flagErr.Unknown)

	got, err := h.DefaultSigLevel()
	require.NoError(t, err)
	assert.Equal(t, alpm.SigPackage, got)

	require.ErrorIs(t, h.SetDefaultSigLevel(alpm.SigUseDefault), alpm.ErrWrongArgs)
}

func TestBoolOptionsRoundTrip(t *testing.T) {
	h, _ := newHandle(t)
	for _, b := range []bool{true, false, true} {
		require.NoError(t, h.SetCheckSpace(b))
		assert.Equal(t, b, h.CheckSpace())
		require.NoError(t, h.SetUseSyslog(b))
		assert.Equal(t, b, h.UseSyslog())
		require.NoError(t, h.SetDisableDLTimeout(b))
	}
}

func TestParallelDownloads(t *testing.T) {
	h, _ := newHandle(t)
	assert.Equal(t, 1, h.ParallelDownloads())
	require.NoError(t, h.SetParallelDownloads(5))
	assert.Equal(t, 5, h.ParallelDownloads())
	require.ErrorIs(t, h.SetParallelDownloads(0), alpm.ErrWrongArgs)
	assert.Equal(t, 5, h.ParallelDownloads())

	require.NoError(t, h.SetParallelDownloads(math.MaxUint32))
	assert.EqualValues(t, uint32(math.MaxUint32), h.ParallelDownloads())
}

func TestStringOptions(t *testing.T) {
	h, tr := newHandle(t)

	_, ok := h.Logfile()
	assert.False(t, ok)
	assert.Equal(t, "", h.GPGDir())

	require.NoError(t, h.SetLogfile(tr.Root+"/var/log/pacman.log"))
	logfile, ok := h.Logfile()
	require.True(t, ok)
	assert.Equal(t, tr.Root+"/var/log/pacman.log", logfile)

	require.NoError(t, h.SetGPGDir(tr.Root+"/etc/pacman.d/gnupg"))
	assert.Equal(t, tr.Root+"/etc/pacman.d/gnupg/", h.GPGDir())

	require.NoError(t, h.SetDBExt(".files"))
	assert.Equal(t, ".files", h.DBExt())

	require.ErrorIs(t, h.SetDBExt(".d\x00b"), alpm.ErrNulByte)
	assert.Equal(t, ".files", h.DBExt())
}
