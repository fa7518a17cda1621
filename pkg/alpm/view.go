package alpm

import (
	"errors"
	"runtime"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// view binds a native pointer to the handle that produced it.
//
// Every accessor locks the handle, then checks that the handle is still open
// and that nothing the view points into has been freed since it was created.
// Two counters track that: the handle epoch, bumped when databases (and with
// them every package) are freed, and an optional generation of the one
// native list the view reads, bumped whenever that list is mutated. Views
// owned by a LoadedPackage follow that package instead of the epoch.
type view struct {
	a     *Alpm
	epoch uint64
	own   *owner
	gen   *generation
	genAt uint64
}

// owner is the lifetime of a caller-owned native package. Every view of the
// package points at it, so its finalizer only runs once none is reachable.
type owner struct {
	a      *Alpm
	pkg    backend.Pkg
	closed bool
}

func newOwner(a *Alpm, p backend.Pkg) *owner {
	o := &owner{a: a, pkg: p}
	runtime.SetFinalizer(o, (*owner).close)
	return o
}

// close frees the package once. Changelogs still open on it are closed
// first.
func (o *owner) close() error {
	a := o.a
	a.mu.Lock()
	defer a.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	runtime.SetFinalizer(o, nil)
	if a.handle == nil {
		return nil
	}
	err := a.closeStreams(func(s openStream) bool { return s.own == o })
	if backend.PkgFree(o.pkg) != 0 {
		return errors.Join(err, a.nativeErr("free package"))
	}
	return err
}

// generation counts mutations of one native list.
type generation struct {
	n uint64
}

type serversKey struct {
	db backend.DB
}

type transKey struct{}

func (v view) stale() bool {
	if v.gen != nil && v.gen.n != v.genAt {
		return true
	}
	if v.own != nil {
		return v.own.closed
	}
	return v.epoch != v.a.epoch
}

func (v view) lock() {
	v.a.mu.Lock()
	if v.a.handle == nil {
		v.a.mu.Unlock()
		panic(ErrReleased)
	}
	if v.stale() {
		v.a.mu.Unlock()
		panic(ErrStaleView)
	}
}

func (v view) unlock() { v.a.mu.Unlock() }

// newView must be called with the handle locked.
func (a *Alpm) newView() view {
	return view{a: a, epoch: a.epoch}
}

// generation returns the mutation counter for key, creating it on first use.
// The caller holds the handle lock.
func (a *Alpm) generation(key any) *generation {
	if a.gens == nil {
		a.gens = map[any]*generation{}
	}
	g, ok := a.gens[key]
	if !ok {
		g = &generation{}
		a.gens[key] = g
	}
	return g
}

// tracking returns a copy of v that also goes stale when the list under key
// is mutated. The caller holds the handle lock.
func (v view) tracking(key any) view {
	g := v.a.generation(key)
	v.gen, v.genAt = g, g.n
	return v
}

// mutate invalidates views of the list under key. The caller holds the
// handle lock.
func (a *Alpm) mutate(key any) {
	a.generation(key).n++
}

// invalidate ends the lifetime of every outstanding view. The caller holds
// the handle lock.
func (a *Alpm) invalidate() {
	a.epoch++
	a.gens = nil
}
