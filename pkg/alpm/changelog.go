package alpm

import (
	"errors"
	"io"
	"runtime"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// ChangeLog streams a package changelog. It must be closed.
type ChangeLog struct {
	pkg    Package
	stream backend.Stream
}

// Changelog opens the changelog of an installed or loaded package.
func (p Package) Changelog() (*ChangeLog, error) {
	p.v.lock()
	defer p.v.unlock()
	s := backend.PkgChangelogOpen(p.p)
	if s == nil {
		return nil, p.v.a.nativeErr("open changelog")
	}
	a := p.v.a
	if a.streams == nil {
		a.streams = map[backend.Stream]openStream{}
	}
	a.streams[s] = openStream{pkg: p.p, own: p.v.own}
	c := &ChangeLog{pkg: p, stream: s}
	runtime.SetFinalizer(c, (*ChangeLog).Close)
	return c, nil
}

// Read returns io.EOF at the end of the changelog.
func (c *ChangeLog) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if c.stream == nil {
		return 0, io.ErrClosedPipe
	}
	c.pkg.v.lock()
	defer c.pkg.v.unlock()
	n := backend.PkgChangelogRead(b, c.pkg.p, c.stream)
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Close releases the stream. Releasing the handle or closing the loaded
// package already closed it natively; Close then only forgets it.
func (c *ChangeLog) Close() error {
	if c.stream == nil {
		return nil
	}
	a := c.pkg.v.a
	a.mu.Lock()
	defer a.mu.Unlock()
	s := c.stream
	c.stream = nil
	runtime.SetFinalizer(c, nil)
	if _, open := a.streams[s]; !open {
		return nil
	}
	delete(a.streams, s)
	if backend.PkgChangelogClose(c.pkg.p, s) != 0 {
		return a.nativeErr("close changelog")
	}
	return nil
}

// openStream is a changelog the caller has not closed yet.
type openStream struct {
	pkg backend.Pkg
	own *owner
}

// closeStreams closes the open changelogs selected by match. Only installed
// and loaded packages have changelogs, so the paths that free those call it
// before freeing. The caller holds the handle lock.
func (a *Alpm) closeStreams(match func(openStream) bool) error {
	var errs []error
	for s, o := range a.streams {
		if !match(o) {
			continue
		}
		delete(a.streams, s)
		if backend.PkgChangelogClose(o.pkg, s) != 0 {
			errs = append(errs, a.nativeErr("close changelog"))
		}
	}
	return errors.Join(errs...)
}
