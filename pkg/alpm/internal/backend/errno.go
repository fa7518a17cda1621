package backend

// Error codes in the order of alpm_errno_t.
const (
	ErrOK = iota
	ErrMemory
	ErrSystem
	ErrBadPerms
	ErrNotAFile
	ErrNotADir
	ErrWrongArgs
	ErrDiskSpace
	ErrHandleNull
	ErrHandleNotNull
	ErrHandleLock
	ErrDBOpen
	ErrDBCreate
	ErrDBNull
	ErrDBNotNull
	ErrDBNotFound
	ErrDBInvalid
	ErrDBInvalidSig
	ErrDBVersion
	ErrDBWrite
	ErrDBRemove
	ErrServerBadURL
	ErrServerNone
	ErrTransNotNull
	ErrTransNull
	ErrTransDupTarget
	ErrTransDupFilename
	ErrTransNotInitialized
	ErrTransNotPrepared
	ErrTransAbort
	ErrTransType
	ErrTransNotLocked
	ErrTransHookFailed
	ErrPkgNotFound
	ErrPkgIgnored
	ErrPkgInvalid
	ErrPkgInvalidChecksum
	ErrPkgInvalidSig
	ErrPkgMissingSig
	ErrPkgOpen
	ErrPkgCantRemove
	ErrPkgInvalidName
	ErrPkgInvalidArch
	ErrPkgRepoNotFound
	ErrSigMissing
	ErrSigInvalid
	ErrUnsatisfiedDeps
	ErrConflictingDeps
	ErrFileConflicts
	ErrRetrieve
	ErrInvalidRegex
	ErrLibarchive
	ErrLibcurl
	ErrExternalDownload
	ErrGpgme
	ErrMissingCapabilitySignatures
	NumErrnos
)
