package alpm

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"sync"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
	"github.com/pacwrap/alpm-go/pkg/alpm/logging"
)

// Alpm is an open libalpm session rooted at a filesystem root and a database
// directory.
//
// libalpm is not reentrant, so every call through an Alpm (or through a view
// obtained from it) is serialized on one mutex. A mutation that may free
// native memory invalidates the views that could point into it; using such a
// view panics with ErrStaleView.
type Alpm struct {
	mu     sync.Mutex
	handle backend.Handle
	epoch  uint64
	gens    map[any]*generation
	streams map[backend.Stream]openStream
	trans   bool
	logger  logging.Logger
}

// Option configures New.
type Option func(*options)

type options struct {
	logger logging.Logger
}

// WithLogger receives libalpm's log output and the handle's own lifecycle
// events. The logger is called while the handle is locked and must not call
// back into it.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New opens a session. root must be an existing directory; dbpath is where
// the local and sync databases live.
func New(root, dbpath string, opts ...Option) (*Alpm, error) {
	cfg := options{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.New(nil)
	}

	croot, err := toCStr(root)
	if err != nil {
		return nil, &InitError{Root: root, DBPath: dbpath, Err: err}
	}
	defer croot.free()
	cdb, err := toCStr(dbpath)
	if err != nil {
		return nil, &InitError{Root: root, DBPath: dbpath, Err: err}
	}
	defer cdb.free()

	h, code := backend.Initialize(croot.p, cdb.p)
	if h == nil {
		return nil, &InitError{
			Root:   root,
			DBPath: dbpath,
			Err:    &Error{Op: "initialize", Code: Errno(code)},
		}
	}

	a := &Alpm{handle: h, logger: cfg.logger}
	backend.SetLogCallback(h, nativeLogger(cfg.logger))
	runtime.SetFinalizer(a, (*Alpm).Release)
	a.logger.Debug(context.Background(), "handle initialized",
		"root", root, "dbpath", dbpath, "libalpm", backend.Version())
	return a, nil
}

// Release closes the session and frees everything libalpm allocated for it.
// It is safe to call more than once.
func (a *Alpm) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.handle == nil {
		return nil
	}
	runtime.SetFinalizer(a, nil)
	streamErr := a.closeStreams(func(openStream) bool { return true })
	h := a.handle
	a.handle = nil
	a.invalidate()
	if a.trans {
		// An open transaction holds the database lock.
		backend.TransRelease(h)
		a.trans = false
	}
	if backend.Release(h) != 0 {
		return errors.Join(streamErr, &Error{Op: "release", Code: ErrSystem})
	}
	a.logger.Debug(context.Background(), "handle released")
	return streamErr
}

// Released reports whether Release has been called.
func (a *Alpm) Released() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.handle == nil
}

// lock acquires the handle for a native call.
func (a *Alpm) lock() {
	a.mu.Lock()
	if a.handle == nil {
		a.mu.Unlock()
		panic(ErrReleased)
	}
}

func (a *Alpm) unlock() { a.mu.Unlock() }

func nativeLogger(l logging.Logger) backend.LogFunc {
	return func(level int, msg string) {
		msg = strings.TrimRight(msg, "\n")
		ctx := context.Background()
		switch LogLevel(level) {
		case LogError:
			l.Error(ctx, msg, logging.Native())
		case LogWarning:
			l.Warn(ctx, msg, logging.Native())
		case LogFunction:
			l.Debug(ctx, msg, logging.Native(), "level", "function")
		default:
			l.Debug(ctx, msg, logging.Native())
		}
	}
}

// Version returns the version of the libalpm in use.
func Version() string { return backend.Version() }

// Native reports whether the real libalpm is linked in rather than the
// built-in emulation.
func Native() bool { return backend.Native }

// Capabilities returns the optional features libalpm was built with.
func Capabilities() (Capability, error) {
	return decodeFlags("capability", int64(backend.Capabilities()), capabilityMask)
}
