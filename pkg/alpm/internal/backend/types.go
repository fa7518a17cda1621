package backend

import "unsafe"

// Opaque native pointers. Each one is only meaningful to the backend that
// produced it.
type (
	Handle   unsafe.Pointer // alpm_handle_t*
	DB       unsafe.Pointer // alpm_db_t*
	Pkg      unsafe.Pointer // alpm_pkg_t*
	Depend   unsafe.Pointer // alpm_depend_t*
	Group    unsafe.Pointer // alpm_group_t*
	Backup   unsafe.Pointer // alpm_backup_t*
	File     unsafe.Pointer // alpm_file_t*
	FileList unsafe.Pointer // alpm_filelist_t*
	List     unsafe.Pointer // alpm_list_t*
	Str      unsafe.Pointer // nul-terminated char*
	Stream   unsafe.Pointer // changelog stream
)

// LogFunc receives formatted native log lines.
type LogFunc func(level int, msg string)

// StrOption names a string-valued handle option.
type StrOption int

const (
	OptRoot StrOption = iota
	OptDBPath
	OptLockfile
	OptGPGDir
	OptLogfile
	OptDBExt
)

// ListOption names a list-valued handle option.
type ListOption int

const (
	OptHookDirs ListOption = iota
	OptCacheDirs
	OptNoUpgrade
	OptNoExtract
	OptIgnorePkg
	OptIgnoreGroup
	OptOverwriteFile
	OptArchitecture
	OptAssumeInstalled
	numListOptions
)

// IntOption names an integer or boolean handle option.
type IntOption int

const (
	OptUseSyslog IntOption = iota
	OptCheckSpace
	OptDisableDLTimeout
	OptParallelDownloads
	OptDefaultSigLevel
	OptLocalFileSigLevel
	OptRemoteFileSigLevel
	numIntOptions
)

// PkgStr names a string field of a package.
type PkgStr int

const (
	PkgName PkgStr = iota
	PkgFilename
	PkgBase
	PkgVersion
	PkgDesc
	PkgURL
	PkgPackager
	PkgMD5Sum
	PkgSHA256Sum
	PkgArch
	PkgBase64Sig
	numPkgStrs
)

// PkgInt names an integer field of a package.
type PkgInt int

const (
	PkgBuildDate PkgInt = iota
	PkgInstallDate
	PkgSize
	PkgISize
	PkgReason
	PkgOrigin
	PkgValidation
	PkgHasScriptlet
	numPkgInts
)

// PkgList names a list field of a package.
type PkgList int

const (
	PkgLicenses PkgList = iota
	PkgGroups
	PkgDepends
	PkgOptDepends
	PkgCheckDepends
	PkgMakeDepends
	PkgConflicts
	PkgProvides
	PkgReplaces
	PkgBackup
	numPkgLists
)

// DepStr names a string field of a dependency.
type DepStr int

const (
	DepName DepStr = iota
	DepVersion
	DepDesc
)

// ElemKind selects how ListFreeInner releases list data.
type ElemKind int

const (
	ElemNone ElemKind = iota
	ElemString
	ElemDepend
)

// Constants mirrored from alpm.h.
const (
	SigPackage           = 1 << 0
	SigPackageOptional   = 1 << 1
	SigPackageMarginalOK = 1 << 2
	SigPackageUnknownOK  = 1 << 3
	SigDatabase          = 1 << 10
	SigDatabaseOptional  = 1 << 11
	SigDatabaseMarginal  = 1 << 12
	SigDatabaseUnknownOK = 1 << 13
	SigUseDefault        = 1 << 30

	ValidationUnknown   = 0
	ValidationNone      = 1 << 0
	ValidationMD5Sum    = 1 << 1
	ValidationSHA256Sum = 1 << 2
	ValidationSignature = 1 << 3

	ReasonExplicit = 0
	ReasonDepend   = 1
	ReasonUnknown  = 2

	FromFile    = 1
	FromLocalDB = 2
	FromSyncDB  = 3

	UsageSync    = 1 << 0
	UsageSearch  = 1 << 1
	UsageInstall = 1 << 2
	UsageUpgrade = 1 << 3
	UsageAll     = 1<<4 - 1

	DepModAny = 1
	DepModEq  = 2
	DepModGE  = 3
	DepModLE  = 4
	DepModGT  = 5
	DepModLT  = 6

	TransNoDeps        = 1 << 0
	TransNoSave        = 1 << 2
	TransNoDepVersion  = 1 << 3
	TransCascade       = 1 << 4
	TransRecurse       = 1 << 5
	TransDBOnly        = 1 << 6
	TransNoHooks       = 1 << 7
	TransAllDeps       = 1 << 8
	TransDownloadOnly  = 1 << 9
	TransNoScriptlet   = 1 << 10
	TransNoConflicts   = 1 << 11
	TransNeeded        = 1 << 13
	TransAllExplicit   = 1 << 14
	TransUnneeded      = 1 << 15
	TransRecurseAll    = 1 << 16
	TransNoLock        = 1 << 17
	LogError           = 1 << 0
	LogWarning         = 1 << 1
	LogDebug           = 1 << 2
	LogFunction        = 1 << 3
	CapabilityNLS      = 1 << 0
	CapabilityDownload = 1 << 1
	CapabilitySigs     = 1 << 2
)
