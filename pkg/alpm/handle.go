package alpm

import (
	"unsafe"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// Root is the filesystem root the handle was created for, with symlinks
// resolved and a trailing slash.
func (a *Alpm) Root() string {
	a.lock()
	defer a.unlock()
	return strictStr(backend.GetStrOption(a.handle, backend.OptRoot), "root")
}

// DBPath is the database directory with a trailing slash.
func (a *Alpm) DBPath() string {
	a.lock()
	defer a.unlock()
	return strictStr(backend.GetStrOption(a.handle, backend.OptDBPath), "dbpath")
}

// Lockfile is the path of the database lock file, DBPath()+"db.lck".
func (a *Alpm) Lockfile() string {
	a.lock()
	defer a.unlock()
	return strictStr(backend.GetStrOption(a.handle, backend.OptLockfile), "lockfile")
}

// GPGDir is empty when no keyring directory has been set.
func (a *Alpm) GPGDir() string {
	a.lock()
	defer a.unlock()
	return emptyStr(backend.GetStrOption(a.handle, backend.OptGPGDir), "gpgdir")
}

// Logfile is absent when libalpm writes no log file.
func (a *Alpm) Logfile() (string, bool) {
	a.lock()
	defer a.unlock()
	return optionalStr(backend.GetStrOption(a.handle, backend.OptLogfile), "logfile")
}

// DBExt is the file extension of sync databases, ".db" by default.
func (a *Alpm) DBExt() string {
	a.lock()
	defer a.unlock()
	return strictStr(backend.GetStrOption(a.handle, backend.OptDBExt), "dbext")
}

func (a *Alpm) setStr(op string, o backend.StrOption, v string) error {
	c, err := toCStr(v)
	if err != nil {
		return err
	}
	defer c.free()
	a.lock()
	defer a.unlock()
	if backend.SetStrOption(a.handle, o, c.p) != 0 {
		return a.nativeErr(op)
	}
	return nil
}

// SetLogfile points libalpm's log at path; the file is opened on first write.
func (a *Alpm) SetLogfile(path string) error { return a.setStr("set logfile", backend.OptLogfile, path) }

// SetGPGDir sets the keyring directory used for signature checks.
func (a *Alpm) SetGPGDir(dir string) error { return a.setStr("set gpgdir", backend.OptGPGDir, dir) }

// SetDBExt changes the sync database extension for databases registered
// afterwards.
func (a *Alpm) SetDBExt(ext string) error { return a.setStr("set dbext", backend.OptDBExt, ext) }

// Managed list options. Mutating an option invalidates the views of that
// option's list.

func (a *Alpm) stringList(o backend.ListOption, field string) List[string] {
	a.lock()
	defer a.unlock()
	return newList(a.newView().tracking(o), backend.GetListOption(a.handle, o), convString(field))
}

func (a *Alpm) addString(op string, o backend.ListOption, v string) error {
	c, err := toCStr(v)
	if err != nil {
		return err
	}
	defer c.free()
	a.lock()
	defer a.unlock()
	if backend.AddListOption(a.handle, o, c.ptr()) != 0 {
		return a.nativeErr(op)
	}
	a.mutate(o)
	return nil
}

// removeData decodes the tri-state result of a remove call: 1 removed, 0 not
// present, anything else failed. Only a removal frees list memory.
func (a *Alpm) removeData(op string, o backend.ListOption, data unsafe.Pointer) (bool, error) {
	a.lock()
	defer a.unlock()
	switch backend.RemoveListOption(a.handle, o, data) {
	case 1:
		a.mutate(o)
		return true, nil
	case 0:
		return false, nil
	}
	return false, a.nativeErr(op)
}

func (a *Alpm) removeString(op string, o backend.ListOption, v string) (bool, error) {
	c, err := toCStr(v)
	if err != nil {
		return false, err
	}
	defer c.free()
	return a.removeData(op, o, c.ptr())
}

// setStrings replaces the option. A nul byte in any element fails before
// anything is allocated or changed. libalpm frees the old list before
// validating the new one, so views go stale even when the call fails.
func (a *Alpm) setStrings(op string, o backend.ListOption, items []string) error {
	raw, err := newStringList(items)
	if err != nil {
		return err
	}
	defer raw.free()
	a.lock()
	defer a.unlock()
	a.mutate(o)
	if backend.SetListOption(a.handle, o, raw.head) != 0 {
		return a.nativeErr(op)
	}
	return nil
}

// HookDirs lists the directories searched for transaction hooks.
func (a *Alpm) HookDirs() List[string] { return a.stringList(backend.OptHookDirs, "hookdir") }

// AddHookDir appends dir; a trailing slash is added.
func (a *Alpm) AddHookDir(dir string) error {
	return a.addString("add hookdir", backend.OptHookDirs, dir)
}

// SetHookDirs replaces the hook directories.
func (a *Alpm) SetHookDirs(dirs []string) error {
	return a.setStrings("set hookdirs", backend.OptHookDirs, dirs)
}

// RemoveHookDir reports false when dir was not configured.
func (a *Alpm) RemoveHookDir(dir string) (bool, error) {
	return a.removeString("remove hookdir", backend.OptHookDirs, dir)
}

// CacheDirs lists the package cache directories.
func (a *Alpm) CacheDirs() List[string] { return a.stringList(backend.OptCacheDirs, "cachedir") }

// AddCacheDir appends dir; a trailing slash is added.
func (a *Alpm) AddCacheDir(dir string) error {
	return a.addString("add cachedir", backend.OptCacheDirs, dir)
}

// SetCacheDirs replaces the cache directories.
func (a *Alpm) SetCacheDirs(dirs []string) error {
	return a.setStrings("set cachedirs", backend.OptCacheDirs, dirs)
}

// RemoveCacheDir reports false when dir was not configured.
func (a *Alpm) RemoveCacheDir(dir string) (bool, error) {
	return a.removeString("remove cachedir", backend.OptCacheDirs, dir)
}

// NoUpgrades lists the patterns of files never overwritten on upgrade.
func (a *Alpm) NoUpgrades() List[string] { return a.stringList(backend.OptNoUpgrade, "noupgrade") }

// AddNoUpgrade appends a pattern.
func (a *Alpm) AddNoUpgrade(pattern string) error {
	return a.addString("add noupgrade", backend.OptNoUpgrade, pattern)
}

// SetNoUpgrades replaces the NoUpgrade patterns.
func (a *Alpm) SetNoUpgrades(patterns []string) error {
	return a.setStrings("set noupgrades", backend.OptNoUpgrade, patterns)
}

// RemoveNoUpgrade reports false when pattern was not configured.
func (a *Alpm) RemoveNoUpgrade(pattern string) (bool, error) {
	return a.removeString("remove noupgrade", backend.OptNoUpgrade, pattern)
}

func (a *Alpm) match(o backend.ListOption, path string) (Match, error) {
	c, err := toCStr(path)
	if err != nil {
		return MatchNo, err
	}
	defer c.free()
	a.lock()
	defer a.unlock()
	return decodeMatch(backend.MatchOption(a.handle, o, c.p))
}

// MatchNoUpgrade matches path against the NoUpgrade patterns. The last
// matching pattern wins; a "!" prefix negates it.
func (a *Alpm) MatchNoUpgrade(path string) (Match, error) {
	return a.match(backend.OptNoUpgrade, path)
}

// NoExtracts lists the patterns of files never extracted.
func (a *Alpm) NoExtracts() List[string] { return a.stringList(backend.OptNoExtract, "noextract") }

// AddNoExtract appends a pattern.
func (a *Alpm) AddNoExtract(pattern string) error {
	return a.addString("add noextract", backend.OptNoExtract, pattern)
}

// SetNoExtracts replaces the NoExtract patterns.
func (a *Alpm) SetNoExtracts(patterns []string) error {
	return a.setStrings("set noextracts", backend.OptNoExtract, patterns)
}

// RemoveNoExtract reports false when pattern was not configured.
func (a *Alpm) RemoveNoExtract(pattern string) (bool, error) {
	return a.removeString("remove noextract", backend.OptNoExtract, pattern)
}

// MatchNoExtract matches path against the NoExtract patterns.
func (a *Alpm) MatchNoExtract(path string) (Match, error) {
	return a.match(backend.OptNoExtract, path)
}

// IgnorePkgs lists the packages skipped on upgrade.
func (a *Alpm) IgnorePkgs() List[string] { return a.stringList(backend.OptIgnorePkg, "ignorepkg") }

// AddIgnorePkg appends a package name.
func (a *Alpm) AddIgnorePkg(name string) error {
	return a.addString("add ignorepkg", backend.OptIgnorePkg, name)
}

// SetIgnorePkgs replaces the ignored packages.
func (a *Alpm) SetIgnorePkgs(names []string) error {
	return a.setStrings("set ignorepkgs", backend.OptIgnorePkg, names)
}

// RemoveIgnorePkg reports false when name was not ignored.
func (a *Alpm) RemoveIgnorePkg(name string) (bool, error) {
	return a.removeString("remove ignorepkg", backend.OptIgnorePkg, name)
}

// IgnoreGroups lists the groups whose packages are skipped on upgrade.
func (a *Alpm) IgnoreGroups() List[string] {
	return a.stringList(backend.OptIgnoreGroup, "ignoregroup")
}

// AddIgnoreGroup appends a group name.
func (a *Alpm) AddIgnoreGroup(name string) error {
	return a.addString("add ignoregroup", backend.OptIgnoreGroup, name)
}

// SetIgnoreGroups replaces the ignored groups.
func (a *Alpm) SetIgnoreGroups(names []string) error {
	return a.setStrings("set ignoregroups", backend.OptIgnoreGroup, names)
}

// RemoveIgnoreGroup reports false when name was not ignored.
func (a *Alpm) RemoveIgnoreGroup(name string) (bool, error) {
	return a.removeString("remove ignoregroup", backend.OptIgnoreGroup, name)
}

// OverwriteFiles lists the globs of files a transaction may overwrite.
func (a *Alpm) OverwriteFiles() List[string] {
	return a.stringList(backend.OptOverwriteFile, "overwrite_file")
}

// AddOverwriteFile appends a glob.
func (a *Alpm) AddOverwriteFile(glob string) error {
	return a.addString("add overwrite_file", backend.OptOverwriteFile, glob)
}

// SetOverwriteFiles replaces the overwrite globs.
func (a *Alpm) SetOverwriteFiles(globs []string) error {
	return a.setStrings("set overwrite_files", backend.OptOverwriteFile, globs)
}

// RemoveOverwriteFile reports false when glob was not configured.
func (a *Alpm) RemoveOverwriteFile(glob string) (bool, error) {
	return a.removeString("remove overwrite_file", backend.OptOverwriteFile, glob)
}

// Architectures lists the accepted package architectures.
func (a *Alpm) Architectures() List[string] {
	return a.stringList(backend.OptArchitecture, "architecture")
}

// AddArchitecture appends an architecture.
func (a *Alpm) AddArchitecture(arch string) error {
	return a.addString("add architecture", backend.OptArchitecture, arch)
}

// SetArchitectures replaces the accepted architectures.
func (a *Alpm) SetArchitectures(archs []string) error {
	return a.setStrings("set architectures", backend.OptArchitecture, archs)
}

// RemoveArchitecture reports false when arch was not configured.
func (a *Alpm) RemoveArchitecture(arch string) (bool, error) {
	return a.removeString("remove architecture", backend.OptArchitecture, arch)
}

// AssumeInstalled lists the dependencies treated as satisfied.
func (a *Alpm) AssumeInstalled() List[Dep] {
	a.lock()
	defer a.unlock()
	v := a.newView().tracking(backend.OptAssumeInstalled)
	return newList(v, backend.GetListOption(a.handle, backend.OptAssumeInstalled), convDep)
}

// AddAssumeInstalled appends a copy of dep.
func (a *Alpm) AddAssumeInstalled(dep Depend) error {
	nd, err := dep.native()
	if err != nil {
		return err
	}
	defer backend.DepFree(nd)
	a.lock()
	defer a.unlock()
	if backend.AddListOption(a.handle, backend.OptAssumeInstalled, unsafe.Pointer(nd)) != 0 {
		return a.nativeErr("add assumeinstalled")
	}
	a.mutate(backend.OptAssumeInstalled)
	return nil
}

// SetAssumeInstalled replaces the assumed dependencies.
func (a *Alpm) SetAssumeInstalled(deps []Depend) error {
	raw, err := newDependList(deps)
	if err != nil {
		return err
	}
	defer raw.free()
	a.lock()
	defer a.unlock()
	a.mutate(backend.OptAssumeInstalled)
	if backend.SetListOption(a.handle, backend.OptAssumeInstalled, raw.head) != 0 {
		return a.nativeErr("set assumeinstalled")
	}
	return nil
}

// RemoveAssumeInstalled removes the entry with the same name and version.
func (a *Alpm) RemoveAssumeInstalled(dep Depend) (bool, error) {
	nd, err := dep.native()
	if err != nil {
		return false, err
	}
	defer backend.DepFree(nd)
	return a.removeData("remove assumeinstalled", backend.OptAssumeInstalled, unsafe.Pointer(nd))
}

func (a *Alpm) getBool(o backend.IntOption) bool {
	a.lock()
	defer a.unlock()
	return backend.GetIntOption(a.handle, o) != 0
}

func (a *Alpm) setInt(op string, o backend.IntOption, v int) error {
	a.lock()
	defer a.unlock()
	if backend.SetIntOption(a.handle, o, v) != 0 {
		return a.nativeErr(op)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UseSyslog reports whether log messages also go to syslog.
func (a *Alpm) UseSyslog() bool { return a.getBool(backend.OptUseSyslog) }

func (a *Alpm) SetUseSyslog(b bool) error {
	return a.setInt("set usesyslog", backend.OptUseSyslog, boolInt(b))
}

// CheckSpace reports whether free disk space is checked before installing.
func (a *Alpm) CheckSpace() bool { return a.getBool(backend.OptCheckSpace) }

func (a *Alpm) SetCheckSpace(b bool) error {
	return a.setInt("set checkspace", backend.OptCheckSpace, boolInt(b))
}

// SetDisableDLTimeout turns off the low-speed download timeout. libalpm
// offers no getter for it.
func (a *Alpm) SetDisableDLTimeout(b bool) error {
	return a.setInt("set disable_dl_timeout", backend.OptDisableDLTimeout, boolInt(b))
}

// ParallelDownloads is the number of concurrent downloads, 1 by default.
func (a *Alpm) ParallelDownloads() int {
	a.lock()
	defer a.unlock()
	return backend.GetIntOption(a.handle, backend.OptParallelDownloads)
}

// SetParallelDownloads sets how many downloads may run at once. It must be at
// least 1.
func (a *Alpm) SetParallelDownloads(n uint32) error {
	return a.setInt("set parallel_downloads", backend.OptParallelDownloads, int(n))
}

func (a *Alpm) getSigLevel(o backend.IntOption) (SigLevel, error) {
	a.lock()
	defer a.unlock()
	return decodeFlags("siglevel", int64(backend.GetIntOption(a.handle, o)), sigLevelMask)
}

func (a *Alpm) setSigLevel(op string, o backend.IntOption, level SigLevel) error {
	if err := checkFlags("siglevel", level, sigLevelMask); err != nil {
		return err
	}
	return a.setInt(op, o, int(level))
}

// DefaultSigLevel is the level databases registered with SigUseDefault get.
func (a *Alpm) DefaultSigLevel() (SigLevel, error) {
	return a.getSigLevel(backend.OptDefaultSigLevel)
}

// SetDefaultSigLevel rejects SigUseDefault.
func (a *Alpm) SetDefaultSigLevel(level SigLevel) error {
	return a.setSigLevel("set default_siglevel", backend.OptDefaultSigLevel, level)
}

func (a *Alpm) LocalFileSigLevel() (SigLevel, error) {
	return a.getSigLevel(backend.OptLocalFileSigLevel)
}

func (a *Alpm) SetLocalFileSigLevel(level SigLevel) error {
	return a.setSigLevel("set local_file_siglevel", backend.OptLocalFileSigLevel, level)
}

func (a *Alpm) RemoteFileSigLevel() (SigLevel, error) {
	return a.getSigLevel(backend.OptRemoteFileSigLevel)
}

func (a *Alpm) SetRemoteFileSigLevel(level SigLevel) error {
	return a.setSigLevel("set remote_file_siglevel", backend.OptRemoteFileSigLevel, level)
}

// Unlock removes the database lock file, for example after a crash left it
// behind.
func (a *Alpm) Unlock() error {
	a.lock()
	defer a.unlock()
	if backend.Unlock(a.handle) != 0 {
		return a.nativeErr("unlock")
	}
	return nil
}
