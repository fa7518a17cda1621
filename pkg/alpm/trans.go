package alpm

import (
	"context"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// TransInit opens a transaction. Unless TransNoLock is set it takes the
// database lock, failing with ErrHandleLock while another process holds it.
func (a *Alpm) TransInit(flags TransFlag) error {
	if err := checkFlags("transflag", flags, transFlagMask); err != nil {
		return err
	}
	a.lock()
	defer a.unlock()
	if backend.TransInit(a.handle, int(flags)) != 0 {
		return a.nativeErr("trans init")
	}
	a.trans = true
	a.logger.Debug(context.Background(), "transaction initialized", "flags", flags.String())
	return nil
}

// TransRelease closes the transaction and releases the database lock.
// Packages queued in it stay valid; only TransRemove views go stale.
func (a *Alpm) TransRelease() error {
	a.lock()
	defer a.unlock()
	if backend.TransRelease(a.handle) != 0 {
		code := Errno(backend.Errno(a.handle))
		if code == ErrTransNull {
			a.trans = false
		} else {
			a.mutate(transKey{})
		}
		return &Error{Op: "trans release", Code: code}
	}
	a.mutate(transKey{})
	a.trans = false
	a.logger.Debug(context.Background(), "transaction released")
	return nil
}

// TransFlags returns the flags the open transaction was started with.
func (a *Alpm) TransFlags() (TransFlag, error) {
	a.lock()
	defer a.unlock()
	f := backend.TransGetFlags(a.handle)
	if f < 0 {
		return 0, a.nativeErr("trans flags")
	}
	return decodeFlags("transflag", int64(f), transFlagMask)
}

// TransRemove lists the packages queued for removal. It is empty when no
// transaction is open.
func (a *Alpm) TransRemove() List[Package] {
	a.lock()
	defer a.unlock()
	return newList(a.newView().tracking(transKey{}), backend.TransGetRemove(a.handle), convPackage)
}

// TransRemovePkg queues an installed package for removal in the open
// transaction. libalpm rejects a missing transaction, a package that is not
// from the local database and a package already queued.
func (a *Alpm) TransRemovePkg(p Package) error {
	if p.v.a != a {
		return ErrForeignHandle
	}
	p.v.lock()
	defer p.v.unlock()
	if backend.RemovePkg(a.handle, p.p) != 0 {
		return a.nativeErr("remove " + strictStr(backend.PkgGetStr(p.p, backend.PkgName), "package name"))
	}
	a.mutate(transKey{})
	return nil
}
