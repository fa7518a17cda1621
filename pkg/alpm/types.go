package alpm

import (
	"strconv"
	"strings"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

type flagName[F ~uint32] struct {
	bit  F
	name string
}

// decodeFlags converts a native integer into a flag set. Bits outside mask
// produce a *FlagError rather than being dropped.
func decodeFlags[F ~uint32](typ string, v int64, mask F) (F, error) {
	if v < 0 || uint64(v)&^uint64(mask) != 0 {
		return 0, &FlagError{Type: typ, Value: v, Unknown: uint64(v) &^ uint64(mask)}
	}
	return F(v), nil
}

// checkFlags rejects unknown bits before they reach libalpm.
func checkFlags[F ~uint32](typ string, f, mask F) error {
	if f&^mask != 0 {
		return &FlagError{Type: typ, Value: int64(f), Unknown: uint64(f &^ mask)}
	}
	return nil
}

func formatFlags[F ~uint32](f F, names []flagName[F]) string {
	if f == 0 {
		return "0"
	}
	var parts []string
	for _, n := range names {
		if f&n.bit != 0 {
			parts = append(parts, n.name)
			f &^= n.bit
		}
	}
	if f != 0 {
		parts = append(parts, "0x"+strconv.FormatUint(uint64(f), 16))
	}
	return strings.Join(parts, "|")
}

// SigLevel selects how strictly packages and databases are verified.
type SigLevel uint32

const (
	SigPackage           SigLevel = backend.SigPackage
	SigPackageOptional   SigLevel = backend.SigPackageOptional
	SigPackageMarginalOK SigLevel = backend.SigPackageMarginalOK
	SigPackageUnknownOK  SigLevel = backend.SigPackageUnknownOK
	SigDatabase          SigLevel = backend.SigDatabase
	SigDatabaseOptional  SigLevel = backend.SigDatabaseOptional
	SigDatabaseMarginal  SigLevel = backend.SigDatabaseMarginal
	SigDatabaseUnknownOK SigLevel = backend.SigDatabaseUnknownOK
	// SigUseDefault defers to the handle's default level. It is not valid for
	// the default level itself.
	SigUseDefault SigLevel = backend.SigUseDefault
)

const sigLevelMask = SigPackage | SigPackageOptional | SigPackageMarginalOK | SigPackageUnknownOK |
	SigDatabase | SigDatabaseOptional | SigDatabaseMarginal | SigDatabaseUnknownOK | SigUseDefault

var sigLevelNames = []flagName[SigLevel]{
	{SigPackage, "PACKAGE"},
	{SigPackageOptional, "PACKAGE_OPTIONAL"},
	{SigPackageMarginalOK, "PACKAGE_MARGINAL_OK"},
	{SigPackageUnknownOK, "PACKAGE_UNKNOWN_OK"},
	{SigDatabase, "DATABASE"},
	{SigDatabaseOptional, "DATABASE_OPTIONAL"},
	{SigDatabaseMarginal, "DATABASE_MARGINAL_OK"},
	{SigDatabaseUnknownOK, "DATABASE_UNKNOWN_OK"},
	{SigUseDefault, "USE_DEFAULT"},
}

func (s SigLevel) String() string { return formatFlags(s, sigLevelNames) }

// PackageValidation records how a package was validated when installed.
type PackageValidation uint32

const (
	ValidationUnknown   PackageValidation = backend.ValidationUnknown
	ValidationNone      PackageValidation = backend.ValidationNone
	ValidationMD5Sum    PackageValidation = backend.ValidationMD5Sum
	ValidationSHA256Sum PackageValidation = backend.ValidationSHA256Sum
	ValidationSignature PackageValidation = backend.ValidationSignature
)

const validationMask = ValidationNone | ValidationMD5Sum | ValidationSHA256Sum | ValidationSignature

var validationNames = []flagName[PackageValidation]{
	{ValidationNone, "NONE"},
	{ValidationMD5Sum, "MD5SUM"},
	{ValidationSHA256Sum, "SHA256SUM"},
	{ValidationSignature, "SIGNATURE"},
}

func (v PackageValidation) String() string {
	if v == ValidationUnknown {
		return "UNKNOWN"
	}
	return formatFlags(v, validationNames)
}

// Usage selects which operations a sync database takes part in.
type Usage uint32

const (
	UsageSync    Usage = backend.UsageSync
	UsageSearch  Usage = backend.UsageSearch
	UsageInstall Usage = backend.UsageInstall
	UsageUpgrade Usage = backend.UsageUpgrade
	UsageAll     Usage = backend.UsageAll
)

var usageNames = []flagName[Usage]{
	{UsageSync, "SYNC"},
	{UsageSearch, "SEARCH"},
	{UsageInstall, "INSTALL"},
	{UsageUpgrade, "UPGRADE"},
}

func (u Usage) String() string { return formatFlags(u, usageNames) }

// TransFlag modifies transaction behaviour.
type TransFlag uint32

const (
	TransNoDeps       TransFlag = backend.TransNoDeps
	TransNoSave       TransFlag = backend.TransNoSave
	TransNoDepVersion TransFlag = backend.TransNoDepVersion
	TransCascade      TransFlag = backend.TransCascade
	TransRecurse      TransFlag = backend.TransRecurse
	TransDBOnly       TransFlag = backend.TransDBOnly
	TransNoHooks      TransFlag = backend.TransNoHooks
	TransAllDeps      TransFlag = backend.TransAllDeps
	TransDownloadOnly TransFlag = backend.TransDownloadOnly
	TransNoScriptlet  TransFlag = backend.TransNoScriptlet
	TransNoConflicts  TransFlag = backend.TransNoConflicts
	TransNeeded       TransFlag = backend.TransNeeded
	TransAllExplicit  TransFlag = backend.TransAllExplicit
	TransUnneeded     TransFlag = backend.TransUnneeded
	TransRecurseAll   TransFlag = backend.TransRecurseAll
	TransNoLock       TransFlag = backend.TransNoLock
)

var transFlagNames = []flagName[TransFlag]{
	{TransNoDeps, "NO_DEPS"},
	{TransNoSave, "NO_SAVE"},
	{TransNoDepVersion, "NO_DEP_VERSION"},
	{TransCascade, "CASCADE"},
	{TransRecurse, "RECURSE"},
	{TransDBOnly, "DB_ONLY"},
	{TransNoHooks, "NO_HOOKS"},
	{TransAllDeps, "ALL_DEPS"},
	{TransDownloadOnly, "DOWNLOAD_ONLY"},
	{TransNoScriptlet, "NO_SCRIPTLET"},
	{TransNoConflicts, "NO_CONFLICTS"},
	{TransNeeded, "NEEDED"},
	{TransAllExplicit, "ALL_EXPLICIT"},
	{TransUnneeded, "UNNEEDED"},
	{TransRecurseAll, "RECURSE_ALL"},
	{TransNoLock, "NO_LOCK"},
}

var transFlagMask = func() TransFlag {
	var m TransFlag
	for _, n := range transFlagNames {
		m |= n.bit
	}
	return m
}()

func (t TransFlag) String() string { return formatFlags(t, transFlagNames) }

// LogLevel is the severity libalpm attaches to a log line.
type LogLevel uint32

const (
	LogError    LogLevel = backend.LogError
	LogWarning  LogLevel = backend.LogWarning
	LogDebug    LogLevel = backend.LogDebug
	LogFunction LogLevel = backend.LogFunction
)

var logLevelNames = []flagName[LogLevel]{
	{LogError, "ERROR"},
	{LogWarning, "WARNING"},
	{LogDebug, "DEBUG"},
	{LogFunction, "FUNCTION"},
}

func (l LogLevel) String() string { return formatFlags(l, logLevelNames) }

// Capability is an optional libalpm feature.
type Capability uint32

const (
	CapabilityNLS        Capability = backend.CapabilityNLS
	CapabilityDownloader Capability = backend.CapabilityDownload
	CapabilitySignatures Capability = backend.CapabilitySigs
)

const capabilityMask = CapabilityNLS | CapabilityDownloader | CapabilitySignatures

var capabilityNames = []flagName[Capability]{
	{CapabilityNLS, "NLS"},
	{CapabilityDownloader, "DOWNLOADER"},
	{CapabilitySignatures, "SIGNATURES"},
}

func (c Capability) String() string { return formatFlags(c, capabilityNames) }

// PackageReason tells whether a package was installed explicitly.
type PackageReason int

const (
	ReasonExplicit PackageReason = backend.ReasonExplicit
	ReasonDepend   PackageReason = backend.ReasonDepend
	ReasonUnknown  PackageReason = backend.ReasonUnknown
)

func decodeReason(v int64) (PackageReason, error) {
	switch v {
	case backend.ReasonExplicit, backend.ReasonDepend, backend.ReasonUnknown:
		return PackageReason(v), nil
	}
	return 0, &FlagError{Type: "package reason", Value: v}
}

func (r PackageReason) String() string {
	switch r {
	case ReasonExplicit:
		return "explicit"
	case ReasonDepend:
		return "depend"
	case ReasonUnknown:
		return "unknown"
	}
	return "PackageReason(" + strconv.Itoa(int(r)) + ")"
}

// PackageFrom is where a package object was loaded from.
type PackageFrom int

const (
	FromFile    PackageFrom = backend.FromFile
	FromLocalDB PackageFrom = backend.FromLocalDB
	FromSyncDB  PackageFrom = backend.FromSyncDB
)

func decodeOrigin(v int64) (PackageFrom, error) {
	switch v {
	case backend.FromFile, backend.FromLocalDB, backend.FromSyncDB:
		return PackageFrom(v), nil
	}
	return 0, &FlagError{Type: "package origin", Value: v}
}

func (f PackageFrom) String() string {
	switch f {
	case FromFile:
		return "file"
	case FromLocalDB:
		return "localdb"
	case FromSyncDB:
		return "syncdb"
	}
	return "PackageFrom(" + strconv.Itoa(int(f)) + ")"
}

// DepMod is the version constraint operator of a dependency.
type DepMod int

const (
	DepModAny DepMod = backend.DepModAny
	DepModEq  DepMod = backend.DepModEq
	DepModGE  DepMod = backend.DepModGE
	DepModLE  DepMod = backend.DepModLE
	DepModGT  DepMod = backend.DepModGT
	DepModLT  DepMod = backend.DepModLT
)

func decodeDepMod(v int64) (DepMod, error) {
	switch v {
	case backend.DepModAny, backend.DepModEq, backend.DepModGE,
		backend.DepModLE, backend.DepModGT, backend.DepModLT:
		return DepMod(v), nil
	}
	return 0, &FlagError{Type: "dependency modifier", Value: v}
}

// String returns the operator as written in a dependency string.
func (m DepMod) String() string {
	switch m {
	case DepModAny:
		return ""
	case DepModEq:
		return "="
	case DepModGE:
		return ">="
	case DepModLE:
		return "<="
	case DepModGT:
		return ">"
	case DepModLT:
		return "<"
	}
	return "DepMod(" + strconv.Itoa(int(m)) + ")"
}

// Match is the outcome of matching a path against NoUpgrade or NoExtract.
type Match int

const (
	// MatchNo means no pattern matched.
	MatchNo Match = iota
	// MatchYes means a pattern matched.
	MatchYes
	// MatchInverted means a negated ("!pattern") pattern matched last.
	MatchInverted
)

func decodeMatch(v int) (Match, error) {
	switch v {
	case 0:
		return MatchYes, nil
	case 1:
		return MatchInverted, nil
	case -1:
		return MatchNo, nil
	}
	return 0, &FlagError{Type: "match result", Value: int64(v)}
}

func (m Match) String() string {
	switch m {
	case MatchNo:
		return "no"
	case MatchYes:
		return "yes"
	case MatchInverted:
		return "inverted"
	}
	return "Match(" + strconv.Itoa(int(m)) + ")"
}
