package alpm

import (
	"errors"
	"fmt"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// Errno is a libalpm error code (alpm_errno_t). It implements error so that
// callers can match a specific code with errors.Is:
//
//	if errors.Is(err, alpm.ErrHandleLock) { ... }
type Errno int

// Error codes reported by libalpm.
const (
	ErrOK                          Errno = backend.ErrOK
	ErrMemory                      Errno = backend.ErrMemory
	ErrSystem                      Errno = backend.ErrSystem
	ErrBadPerms                    Errno = backend.ErrBadPerms
	ErrNotAFile                    Errno = backend.ErrNotAFile
	ErrNotADir                     Errno = backend.ErrNotADir
	ErrWrongArgs                   Errno = backend.ErrWrongArgs
	ErrDiskSpace                   Errno = backend.ErrDiskSpace
	ErrHandleNull                  Errno = backend.ErrHandleNull
	ErrHandleNotNull               Errno = backend.ErrHandleNotNull
	ErrHandleLock                  Errno = backend.ErrHandleLock
	ErrDBOpen                      Errno = backend.ErrDBOpen
	ErrDBCreate                    Errno = backend.ErrDBCreate
	ErrDBNull                      Errno = backend.ErrDBNull
	ErrDBNotNull                   Errno = backend.ErrDBNotNull
	ErrDBNotFound                  Errno = backend.ErrDBNotFound
	ErrDBInvalid                   Errno = backend.ErrDBInvalid
	ErrDBInvalidSig                Errno = backend.ErrDBInvalidSig
	ErrDBVersion                   Errno = backend.ErrDBVersion
	ErrDBWrite                     Errno = backend.ErrDBWrite
	ErrDBRemove                    Errno = backend.ErrDBRemove
	ErrServerBadURL                Errno = backend.ErrServerBadURL
	ErrServerNone                  Errno = backend.ErrServerNone
	ErrTransNotNull                Errno = backend.ErrTransNotNull
	ErrTransNull                   Errno = backend.ErrTransNull
	ErrTransDupTarget              Errno = backend.ErrTransDupTarget
	ErrTransDupFilename            Errno = backend.ErrTransDupFilename
	ErrTransNotInitialized         Errno = backend.ErrTransNotInitialized
	ErrTransNotPrepared            Errno = backend.ErrTransNotPrepared
	ErrTransAbort                  Errno = backend.ErrTransAbort
	ErrTransType                   Errno = backend.ErrTransType
	ErrTransNotLocked              Errno = backend.ErrTransNotLocked
	ErrTransHookFailed             Errno = backend.ErrTransHookFailed
	ErrPkgNotFound                 Errno = backend.ErrPkgNotFound
	ErrPkgIgnored                  Errno = backend.ErrPkgIgnored
	ErrPkgInvalid                  Errno = backend.ErrPkgInvalid
	ErrPkgInvalidChecksum          Errno = backend.ErrPkgInvalidChecksum
	ErrPkgInvalidSig               Errno = backend.ErrPkgInvalidSig
	ErrPkgMissingSig               Errno = backend.ErrPkgMissingSig
	ErrPkgOpen                     Errno = backend.ErrPkgOpen
	ErrPkgCantRemove               Errno = backend.ErrPkgCantRemove
	ErrPkgInvalidName              Errno = backend.ErrPkgInvalidName
	ErrPkgInvalidArch              Errno = backend.ErrPkgInvalidArch
	ErrPkgRepoNotFound             Errno = backend.ErrPkgRepoNotFound
	ErrSigMissing                  Errno = backend.ErrSigMissing
	ErrSigInvalid                  Errno = backend.ErrSigInvalid
	ErrUnsatisfiedDeps             Errno = backend.ErrUnsatisfiedDeps
	ErrConflictingDeps             Errno = backend.ErrConflictingDeps
	ErrFileConflicts               Errno = backend.ErrFileConflicts
	ErrRetrieve                    Errno = backend.ErrRetrieve
	ErrInvalidRegex                Errno = backend.ErrInvalidRegex
	ErrLibarchive                  Errno = backend.ErrLibarchive
	ErrLibcurl                     Errno = backend.ErrLibcurl
	ErrExternalDownload            Errno = backend.ErrExternalDownload
	ErrGpgme                       Errno = backend.ErrGpgme
	ErrMissingCapabilitySignatures Errno = backend.ErrMissingCapabilitySignatures
)

// Error returns libalpm's message for the code.
func (e Errno) Error() string { return backend.StrError(int(e)) }

func (e Errno) String() string { return e.Error() }

var (
	// ErrNulByte is wrapped by NulError.
	ErrNulByte = errors.New("alpm: string contains a nul byte")

	// ErrReleased is the panic value for any use of a handle (or a view
	// obtained from it) after Release.
	ErrReleased = errors.New("alpm: handle has been released")

	// ErrStaleView is the panic value for a view that was obtained before a
	// mutation which may have freed the native object behind it. Obtain the
	// view again after mutating the handle.
	ErrStaleView = errors.New("alpm: view invalidated by a handle mutation")

	// ErrLocalDB is returned when unregistering the local database.
	ErrLocalDB = errors.New("alpm: the local database cannot be unregistered")

	// ErrForeignHandle is returned when an object from one handle is passed to
	// another.
	ErrForeignHandle = errors.New("alpm: object belongs to a different handle")
)

// Error reports a failed native call.
type Error struct {
	Op   string
	Code Errno
}

func (e *Error) Error() string {
	return fmt.Sprintf("alpm: %s: %s", e.Op, e.Code.Error())
}

func (e *Error) Unwrap() error { return e.Code }

// InitError reports that libalpm refused to create a handle for the given
// root and database path.
type InitError struct {
	Root   string
	DBPath string
	Err    error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("alpm: initialize root=%q dbpath=%q: %v", e.Root, e.DBPath, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// NulError reports a string that cannot be passed to libalpm because it holds
// a nul byte at Pos.
type NulError struct {
	Pos int
	Len int
}

func (e *NulError) Error() string {
	return fmt.Sprintf("alpm: nul byte at position %d of %d-byte string", e.Pos, e.Len)
}

func (e *NulError) Unwrap() error { return ErrNulByte }

// FlagError reports a native integer with bits (or an enumeration value) that
// this package does not know. Decoding fails closed instead of dropping them.
type FlagError struct {
	Type    string
	Value   int64
	Unknown uint64
}

func (e *FlagError) Error() string {
	if e.Unknown == 0 {
		return fmt.Sprintf("alpm: unknown %s value %d", e.Type, e.Value)
	}
	return fmt.Sprintf("alpm: %s %#x has unknown bits %#x", e.Type, e.Value, e.Unknown)
}

// nativeErr builds an Error from the handle's errno. Must be called with the
// handle locked.
func (a *Alpm) nativeErr(op string) error {
	return &Error{Op: op, Code: Errno(backend.Errno(a.handle))}
}
