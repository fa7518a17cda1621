//go:build !cgo || !libalpm

package backend

import (
	"errors"
	"os"
	"path/filepath"
	"unsafe"
)

const transStateInitialized = 1

type trans struct {
	flags  int
	state  int
	add    *node
	remove *node
}

func (h *handle) lock() int {
	file := GoString(h.lockfile)
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return ErrHandleLock
	}
	f, err := os.OpenFile(file, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o000)
	if err != nil {
		return ErrHandleLock
	}
	_ = f.Close()
	return ErrOK
}

func (h *handle) unlock() int {
	file := GoString(h.lockfile)
	err := os.Remove(file)
	switch {
	case err == nil:
		return ErrOK
	case errors.Is(err, os.ErrNotExist):
		h.logf(LogWarning, "lock file missing %s\n", file)
		return ErrOK
	default:
		h.logf(LogError, "could not remove lock file %s\n", file)
		return ErrSystem
	}
}

func TransInit(hp Handle, flags int) int {
	h := asHandle(hp)
	if h.trans != nil {
		return h.fail(ErrTransNotNull)
	}
	if flags&TransNoLock == 0 {
		if code := h.lock(); code != ErrOK {
			return h.fail(code)
		}
	}
	h.trans = &trans{flags: flags, state: transStateInitialized}
	return 0
}

func TransRelease(hp Handle) int {
	h := asHandle(hp)
	t := h.trans
	if t == nil {
		return h.fail(ErrTransNull)
	}
	poison(t.add)
	poison(t.remove)
	h.trans = nil
	if t.flags&TransNoLock == 0 {
		if code := h.unlock(); code != ErrOK {
			return h.fail(code)
		}
	}
	return 0
}

func TransGetFlags(hp Handle) int {
	h := asHandle(hp)
	if h.trans == nil {
		return h.fail(ErrTransNull)
	}
	return h.trans.flags
}

func TransGetAdd(hp Handle) List {
	h := asHandle(hp)
	if h.trans == nil {
		h.errno = ErrTransNull
		return nil
	}
	return asList(h.trans.add)
}

func TransGetRemove(hp Handle) List {
	h := asHandle(hp)
	if h.trans == nil {
		h.errno = ErrTransNull
		return nil
	}
	return asList(h.trans.remove)
}

// RemovePkg queues an installed package for removal.
func RemovePkg(hp Handle, pp Pkg) int {
	h, p := asHandle(hp), asPkg(pp)
	if p == nil || p.h != h || p.origin != FromLocalDB {
		return h.fail(ErrWrongArgs)
	}
	t := h.trans
	if t == nil {
		return h.fail(ErrTransNull)
	}
	if t.state != transStateInitialized {
		return h.fail(ErrTransNotInitialized)
	}
	name := GoString(p.strs[PkgName])
	for it := t.remove; it != nil; it = it.next {
		if GoString((*pkg)(it.data).strs[PkgName]) == name {
			h.logf(LogDebug, "skipping target: %s\n", name)
			return h.fail(ErrTransDupTarget)
		}
	}
	h.logf(LogDebug, "adding package %s to the transaction remove list\n", name)
	t.remove = appendNode(t.remove, unsafe.Pointer(p))
	return 0
}
