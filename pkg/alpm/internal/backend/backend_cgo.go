//go:build cgo && libalpm

package backend

/*
#cgo pkg-config: libalpm

#define _GNU_SOURCE
#include <stdio.h>
#include <stdlib.h>
#include <stdarg.h>
#include <alpm.h>
#include <alpm_list.h>

extern void goalpmLog(void *ctx, int level, char *msg);

static void goalpm_logcb(void *ctx, alpm_loglevel_t level, const char *fmt, va_list args) {
	char *msg = NULL;
	if (vasprintf(&msg, fmt, args) < 0) {
		return;
	}
	goalpmLog(ctx, (int)level, msg);
	free(msg);
}

static int goalpm_set_logcb(alpm_handle_t *h, void *ctx) {
	if (ctx == NULL) {
		return alpm_option_set_logcb(h, NULL, NULL);
	}
	return alpm_option_set_logcb(h, goalpm_logcb, ctx);
}

static void goalpm_free_strings(alpm_list_t *l) {
	alpm_list_free_inner(l, free);
	alpm_list_free(l);
}

static void goalpm_free_deps(alpm_list_t *l) {
	alpm_list_free_inner(l, (alpm_list_fn_free)alpm_dep_free);
	alpm_list_free(l);
}
*/
import "C"

import (
	"sync"
	"unsafe"
)

// Native is true when libalpm is linked in.
const Native = true

func h(p Handle) *C.alpm_handle_t   { return (*C.alpm_handle_t)(p) }
func d(p DB) *C.alpm_db_t           { return (*C.alpm_db_t)(p) }
func pk(p Pkg) *C.alpm_pkg_t        { return (*C.alpm_pkg_t)(p) }
func dep(p Depend) *C.alpm_depend_t { return (*C.alpm_depend_t)(p) }
func l(p List) *C.alpm_list_t       { return (*C.alpm_list_t)(p) }
func s(p Str) *C.char               { return (*C.char)(p) }

func CString(b []byte) Str {
	p := C.malloc(C.size_t(len(b) + 1))
	buf := unsafe.Slice((*byte)(p), len(b)+1)
	copy(buf, b)
	buf[len(b)] = 0
	return Str(p)
}

func GoString(p Str) string {
	if p == nil {
		return ""
	}
	return C.GoString(s(p))
}

func Free(p unsafe.Pointer) { C.free(p) }

func SigBytes(p unsafe.Pointer, n int) []byte {
	if p == nil || n <= 0 {
		return nil
	}
	return C.GoBytes(p, C.int(n))
}

func StrError(code int) string {
	return C.GoString(C.alpm_strerror(C.alpm_errno_t(code)))
}

func ListNext(p List) List {
	if p == nil {
		return nil
	}
	return List(C.alpm_list_next(l(p)))
}

func ListData(p List) unsafe.Pointer {
	if p == nil {
		return nil
	}
	return l(p).data
}

func ListCount(p List) int { return int(C.alpm_list_count(l(p))) }

func ListAppend(p List, data unsafe.Pointer) List {
	return List(C.alpm_list_add(l(p), data))
}

func ListFree(p List) { C.alpm_list_free(l(p)) }

func ListFreeInner(p List, kind ElemKind) {
	switch kind {
	case ElemString:
		C.goalpm_free_strings(l(p))
	case ElemDepend:
		C.goalpm_free_deps(l(p))
	default:
		C.alpm_list_free(l(p))
	}
}

func Initialize(root, dbpath Str) (Handle, int) {
	var errno C.alpm_errno_t
	hp := C.alpm_initialize(s(root), s(dbpath), &errno)
	if hp == nil {
		return nil, int(errno)
	}
	return Handle(hp), ErrOK
}

func Release(hp Handle) int {
	ret := int(C.alpm_release(h(hp)))
	dropLogContext(hp)
	return ret
}

func Errno(hp Handle) int { return int(C.alpm_errno(h(hp))) }

func Unlock(hp Handle) int { return int(C.alpm_unlock(h(hp))) }

// logContexts maps a C-allocated context key to its callback; logOwners maps
// each handle to the key it registered.
var (
	logContexts sync.Map
	logOwners   sync.Map
)

func dropLogContext(hp Handle) {
	if ctx, ok := logOwners.LoadAndDelete(unsafe.Pointer(hp)); ok {
		logContexts.Delete(ctx)
		C.free(ctx.(unsafe.Pointer))
	}
}

func SetLogCallback(hp Handle, fn LogFunc) {
	if fn == nil {
		C.goalpm_set_logcb(h(hp), nil)
		dropLogContext(hp)
		return
	}
	ctx := C.malloc(1)
	logContexts.Store(ctx, fn)
	C.goalpm_set_logcb(h(hp), ctx)
	dropLogContext(hp)
	logOwners.Store(unsafe.Pointer(hp), ctx)
}

func Version() string { return C.GoString(C.alpm_version()) }

func Capabilities() int { return int(C.alpm_capabilities()) }

func GetStrOption(hp Handle, o StrOption) Str {
	switch o {
	case OptRoot:
		return Str(C.alpm_option_get_root(h(hp)))
	case OptDBPath:
		return Str(C.alpm_option_get_dbpath(h(hp)))
	case OptLockfile:
		return Str(C.alpm_option_get_lockfile(h(hp)))
	case OptGPGDir:
		return Str(C.alpm_option_get_gpgdir(h(hp)))
	case OptLogfile:
		return Str(C.alpm_option_get_logfile(h(hp)))
	case OptDBExt:
		return Str(C.alpm_option_get_dbext(h(hp)))
	}
	return nil
}

func SetStrOption(hp Handle, o StrOption, v Str) int {
	switch o {
	case OptGPGDir:
		return int(C.alpm_option_set_gpgdir(h(hp), s(v)))
	case OptLogfile:
		return int(C.alpm_option_set_logfile(h(hp), s(v)))
	case OptDBExt:
		return int(C.alpm_option_set_dbext(h(hp), s(v)))
	}
	return -1
}

func GetListOption(hp Handle, o ListOption) List {
	hh := h(hp)
	switch o {
	case OptHookDirs:
		return List(C.alpm_option_get_hookdirs(hh))
	case OptCacheDirs:
		return List(C.alpm_option_get_cachedirs(hh))
	case OptNoUpgrade:
		return List(C.alpm_option_get_noupgrades(hh))
	case OptNoExtract:
		return List(C.alpm_option_get_noextracts(hh))
	case OptIgnorePkg:
		return List(C.alpm_option_get_ignorepkgs(hh))
	case OptIgnoreGroup:
		return List(C.alpm_option_get_ignoregroups(hh))
	case OptOverwriteFile:
		return List(C.alpm_option_get_overwrite_files(hh))
	case OptArchitecture:
		return List(C.alpm_option_get_architectures(hh))
	case OptAssumeInstalled:
		return List(C.alpm_option_get_assumeinstalled(hh))
	}
	return nil
}

func AddListOption(hp Handle, o ListOption, data unsafe.Pointer) int {
	hh, v := h(hp), (*C.char)(data)
	switch o {
	case OptHookDirs:
		return int(C.alpm_option_add_hookdir(hh, v))
	case OptCacheDirs:
		return int(C.alpm_option_add_cachedir(hh, v))
	case OptNoUpgrade:
		return int(C.alpm_option_add_noupgrade(hh, v))
	case OptNoExtract:
		return int(C.alpm_option_add_noextract(hh, v))
	case OptIgnorePkg:
		return int(C.alpm_option_add_ignorepkg(hh, v))
	case OptIgnoreGroup:
		return int(C.alpm_option_add_ignoregroup(hh, v))
	case OptOverwriteFile:
		return int(C.alpm_option_add_overwrite_file(hh, v))
	case OptArchitecture:
		return int(C.alpm_option_add_architecture(hh, v))
	case OptAssumeInstalled:
		return int(C.alpm_option_add_assumeinstalled(hh, (*C.alpm_depend_t)(data)))
	}
	return -1
}

func RemoveListOption(hp Handle, o ListOption, data unsafe.Pointer) int {
	hh, v := h(hp), (*C.char)(data)
	switch o {
	case OptHookDirs:
		return int(C.alpm_option_remove_hookdir(hh, v))
	case OptCacheDirs:
		return int(C.alpm_option_remove_cachedir(hh, v))
	case OptNoUpgrade:
		return int(C.alpm_option_remove_noupgrade(hh, v))
	case OptNoExtract:
		return int(C.alpm_option_remove_noextract(hh, v))
	case OptIgnorePkg:
		return int(C.alpm_option_remove_ignorepkg(hh, v))
	case OptIgnoreGroup:
		return int(C.alpm_option_remove_ignoregroup(hh, v))
	case OptOverwriteFile:
		return int(C.alpm_option_remove_overwrite_file(hh, v))
	case OptArchitecture:
		return int(C.alpm_option_remove_architecture(hh, v))
	case OptAssumeInstalled:
		return int(C.alpm_option_remove_assumeinstalled(hh, (*C.alpm_depend_t)(data)))
	}
	return -1
}

func SetListOption(hp Handle, o ListOption, list List) int {
	hh, v := h(hp), l(list)
	switch o {
	case OptHookDirs:
		return int(C.alpm_option_set_hookdirs(hh, v))
	case OptCacheDirs:
		return int(C.alpm_option_set_cachedirs(hh, v))
	case OptNoUpgrade:
		return int(C.alpm_option_set_noupgrades(hh, v))
	case OptNoExtract:
		return int(C.alpm_option_set_noextracts(hh, v))
	case OptIgnorePkg:
		return int(C.alpm_option_set_ignorepkgs(hh, v))
	case OptIgnoreGroup:
		return int(C.alpm_option_set_ignoregroups(hh, v))
	case OptOverwriteFile:
		return int(C.alpm_option_set_overwrite_files(hh, v))
	case OptArchitecture:
		return int(C.alpm_option_set_architectures(hh, v))
	case OptAssumeInstalled:
		return int(C.alpm_option_set_assumeinstalled(hh, v))
	}
	return -1
}

func MatchOption(hp Handle, o ListOption, v Str) int {
	switch o {
	case OptNoUpgrade:
		return int(C.alpm_option_match_noupgrade(h(hp), s(v)))
	case OptNoExtract:
		return int(C.alpm_option_match_noextract(h(hp), s(v)))
	}
	return -1
}

// GetIntOption reads an integer option. libalpm has no getter for the
// download timeout switch, so OptDisableDLTimeout always reads 0.
func GetIntOption(hp Handle, o IntOption) int {
	hh := h(hp)
	switch o {
	case OptUseSyslog:
		return int(C.alpm_option_get_usesyslog(hh))
	case OptCheckSpace:
		return int(C.alpm_option_get_checkspace(hh))
	case OptParallelDownloads:
		return int(C.alpm_option_get_parallel_downloads(hh))
	case OptDefaultSigLevel:
		return int(C.alpm_option_get_default_siglevel(hh))
	case OptLocalFileSigLevel:
		return int(C.alpm_option_get_local_file_siglevel(hh))
	case OptRemoteFileSigLevel:
		return int(C.alpm_option_get_remote_file_siglevel(hh))
	}
	return 0
}

func SetIntOption(hp Handle, o IntOption, v int) int {
	hh := h(hp)
	switch o {
	case OptUseSyslog:
		return int(C.alpm_option_set_usesyslog(hh, C.int(v)))
	case OptCheckSpace:
		return int(C.alpm_option_set_checkspace(hh, C.int(v)))
	case OptDisableDLTimeout:
		return int(C.alpm_option_set_disable_dl_timeout(hh, C.ushort(v)))
	case OptParallelDownloads:
		return int(C.alpm_option_set_parallel_downloads(hh, C.uint(v)))
	case OptDefaultSigLevel:
		return int(C.alpm_option_set_default_siglevel(hh, C.int(v)))
	case OptLocalFileSigLevel:
		return int(C.alpm_option_set_local_file_siglevel(hh, C.int(v)))
	case OptRemoteFileSigLevel:
		return int(C.alpm_option_set_remote_file_siglevel(hh, C.int(v)))
	}
	return -1
}

func GetLocalDB(hp Handle) DB { return DB(C.alpm_get_localdb(h(hp))) }

func GetSyncDBs(hp Handle) List { return List(C.alpm_get_syncdbs(h(hp))) }

func RegisterSyncDB(hp Handle, name Str, level int) DB {
	return DB(C.alpm_register_syncdb(h(hp), s(name), C.int(level)))
}

func UnregisterAllSyncDBs(hp Handle) int { return int(C.alpm_unregister_all_syncdbs(h(hp))) }

func DBUnregister(p DB) int { return int(C.alpm_db_unregister(d(p))) }

func DBGetName(p DB) Str { return Str(C.alpm_db_get_name(d(p))) }

func DBGetSigLevel(p DB) int { return int(C.alpm_db_get_siglevel(d(p))) }

func DBGetValid(p DB) int { return int(C.alpm_db_get_valid(d(p))) }

func DBGetServers(p DB) List { return List(C.alpm_db_get_servers(d(p))) }

func DBSetServers(p DB, list List) int { return int(C.alpm_db_set_servers(d(p), l(list))) }

func DBAddServer(p DB, url Str) int { return int(C.alpm_db_add_server(d(p), s(url))) }

func DBRemoveServer(p DB, url Str) int { return int(C.alpm_db_remove_server(d(p), s(url))) }

func DBGetPkg(p DB, name Str) Pkg { return Pkg(C.alpm_db_get_pkg(d(p), s(name))) }

func DBGetPkgCache(p DB) List { return List(C.alpm_db_get_pkgcache(d(p))) }

func DBGetGroup(p DB, name Str) Group { return Group(C.alpm_db_get_group(d(p), s(name))) }

func DBGetGroupCache(p DB) List { return List(C.alpm_db_get_groupcache(d(p))) }

func GroupName(g Group) Str { return Str((*C.alpm_group_t)(g).name) }

func GroupPackages(g Group) List { return List((*C.alpm_group_t)(g).packages) }

func DBGetUsage(p DB) (int, int) {
	var usage C.int
	ret := C.alpm_db_get_usage(d(p), &usage)
	return int(usage), int(ret)
}

func DBSetUsage(p DB, usage int) int { return int(C.alpm_db_set_usage(d(p), C.int(usage))) }

func PkgGetStr(p Pkg, f PkgStr) Str {
	pp := pk(p)
	switch f {
	case PkgName:
		return Str(C.alpm_pkg_get_name(pp))
	case PkgFilename:
		return Str(C.alpm_pkg_get_filename(pp))
	case PkgBase:
		return Str(C.alpm_pkg_get_base(pp))
	case PkgVersion:
		return Str(C.alpm_pkg_get_version(pp))
	case PkgDesc:
		return Str(C.alpm_pkg_get_desc(pp))
	case PkgURL:
		return Str(C.alpm_pkg_get_url(pp))
	case PkgPackager:
		return Str(C.alpm_pkg_get_packager(pp))
	case PkgMD5Sum:
		return Str(C.alpm_pkg_get_md5sum(pp))
	case PkgSHA256Sum:
		return Str(C.alpm_pkg_get_sha256sum(pp))
	case PkgArch:
		return Str(C.alpm_pkg_get_arch(pp))
	case PkgBase64Sig:
		return Str(C.alpm_pkg_get_base64_sig(pp))
	}
	return nil
}

func PkgGetInt(p Pkg, f PkgInt) int64 {
	pp := pk(p)
	switch f {
	case PkgBuildDate:
		return int64(C.alpm_pkg_get_builddate(pp))
	case PkgInstallDate:
		return int64(C.alpm_pkg_get_installdate(pp))
	case PkgSize:
		return int64(C.alpm_pkg_get_size(pp))
	case PkgISize:
		return int64(C.alpm_pkg_get_isize(pp))
	case PkgReason:
		return int64(C.alpm_pkg_get_reason(pp))
	case PkgOrigin:
		return int64(C.alpm_pkg_get_origin(pp))
	case PkgValidation:
		return int64(C.alpm_pkg_get_validation(pp))
	case PkgHasScriptlet:
		return int64(C.alpm_pkg_has_scriptlet(pp))
	}
	return 0
}

func PkgGetList(p Pkg, f PkgList) List {
	pp := pk(p)
	switch f {
	case PkgLicenses:
		return List(C.alpm_pkg_get_licenses(pp))
	case PkgGroups:
		return List(C.alpm_pkg_get_groups(pp))
	case PkgDepends:
		return List(C.alpm_pkg_get_depends(pp))
	case PkgOptDepends:
		return List(C.alpm_pkg_get_optdepends(pp))
	case PkgCheckDepends:
		return List(C.alpm_pkg_get_checkdepends(pp))
	case PkgMakeDepends:
		return List(C.alpm_pkg_get_makedepends(pp))
	case PkgConflicts:
		return List(C.alpm_pkg_get_conflicts(pp))
	case PkgProvides:
		return List(C.alpm_pkg_get_provides(pp))
	case PkgReplaces:
		return List(C.alpm_pkg_get_replaces(pp))
	case PkgBackup:
		return List(C.alpm_pkg_get_backup(pp))
	}
	return nil
}

func PkgGetFiles(p Pkg) FileList { return FileList(C.alpm_pkg_get_files(pk(p))) }

func PkgGetDB(p Pkg) DB { return DB(C.alpm_pkg_get_db(pk(p))) }

func PkgChangelogOpen(p Pkg) Stream { return Stream(C.alpm_pkg_changelog_open(pk(p))) }

func PkgChangelogRead(buf []byte, p Pkg, st Stream) int {
	if len(buf) == 0 {
		return 0
	}
	return int(C.alpm_pkg_changelog_read(unsafe.Pointer(&buf[0]), C.size_t(len(buf)), pk(p), unsafe.Pointer(st)))
}

func PkgChangelogClose(p Pkg, st Stream) int {
	return int(C.alpm_pkg_changelog_close(pk(p), unsafe.Pointer(st)))
}

func PkgComputeRequiredBy(p Pkg) List { return List(C.alpm_pkg_compute_requiredby(pk(p))) }

func PkgComputeOptionalFor(p Pkg) List { return List(C.alpm_pkg_compute_optionalfor(pk(p))) }

func PkgGetSig(p Pkg) (unsafe.Pointer, int, int) {
	var sig *C.uchar
	var n C.size_t
	ret := C.alpm_pkg_get_sig(pk(p), &sig, &n)
	return unsafe.Pointer(sig), int(n), int(ret)
}

func PkgCheckMD5Sum(p Pkg) int { return int(C.alpm_pkg_checkmd5sum(pk(p))) }

func PkgShouldIgnore(hp Handle, p Pkg) int { return int(C.alpm_pkg_should_ignore(h(hp), pk(p))) }

func PkgLoad(hp Handle, filename Str, full bool, level int) (Pkg, int) {
	var out *C.alpm_pkg_t
	var cfull C.int
	if full {
		cfull = 1
	}
	ret := C.alpm_pkg_load(h(hp), s(filename), cfull, C.int(level), &out)
	return Pkg(out), int(ret)
}

func PkgFree(p Pkg) int { return int(C.alpm_pkg_free(pk(p))) }

func DepGetStr(p Depend, f DepStr) Str {
	switch f {
	case DepName:
		return Str(dep(p).name)
	case DepVersion:
		return Str(dep(p).version)
	case DepDesc:
		return Str(dep(p).desc)
	}
	return nil
}

func DepGetMod(p Depend) int { return int(dep(p).mod) }

func DepGetNameHash(p Depend) uint64 { return uint64(dep(p).name_hash) }

func DepFromString(v Str) Depend { return Depend(C.alpm_dep_from_string(s(v))) }

func DepFree(p Depend) { C.alpm_dep_free(dep(p)) }

func DepComputeString(p Depend) Str { return Str(C.alpm_dep_compute_string(dep(p))) }

func Vercmp(a, b Str) int { return int(C.alpm_pkg_vercmp(s(a), s(b))) }

func fl(p FileList) *C.alpm_filelist_t { return (*C.alpm_filelist_t)(p) }

func FileListCount(p FileList) int { return int(fl(p).count) }

func FileListAt(p FileList, i int) File {
	files := unsafe.Slice(fl(p).files, int(fl(p).count))
	return File(&files[i])
}

func FileListContains(p FileList, name Str) File {
	return File(C.alpm_filelist_contains(fl(p), s(name)))
}

func FileGetName(f File) Str { return Str((*C.alpm_file_t)(f).name) }

func FileGetSize(f File) int64 { return int64((*C.alpm_file_t)(f).size) }

func FileGetMode(f File) uint32 { return uint32((*C.alpm_file_t)(f).mode) }

func BackupGetName(b Backup) Str { return Str((*C.alpm_backup_t)(b).name) }

func BackupGetHash(b Backup) Str { return Str((*C.alpm_backup_t)(b).hash) }

func TransInit(hp Handle, flags int) int { return int(C.alpm_trans_init(h(hp), C.int(flags))) }

func TransRelease(hp Handle) int { return int(C.alpm_trans_release(h(hp))) }

func TransGetFlags(hp Handle) int { return int(C.alpm_trans_get_flags(h(hp))) }

func TransGetAdd(hp Handle) List { return List(C.alpm_trans_get_add(h(hp))) }

func TransGetRemove(hp Handle) List { return List(C.alpm_trans_get_remove(h(hp))) }

func RemovePkg(hp Handle, p Pkg) int { return int(C.alpm_remove_pkg(h(hp), pk(p))) }
