// Package alpm is a binding to libalpm, the package management library behind
// pacman.
//
// # Handles and views
//
// New opens a session on a filesystem root and a database directory. Every
// other value in this package is a view into memory libalpm owns for that
// session: databases, packages, dependencies, groups, file lists and the
// lists returned by option getters. Views are cheap values; they copy data out
// of native memory only when an accessor is called.
//
// All calls are serialized on the session's mutex. A call that may free
// native memory makes the views that could point into it stale:
//
//   - mutating a list option or a database's servers invalidates views of
//     that list;
//   - unregistering databases and Release invalidate every view;
//   - TransRelease invalidates the TransRemove list.
//
// Using a stale view panics with ErrStaleView; using any view after Release
// panics with ErrReleased. Both are programming errors, like indexing past
// the end of a slice. Values that are owned by the caller (Depend, File,
// Signature, OwnedList contents, strings) never go stale.
//
// # Strings
//
// libalpm works on nul-terminated strings. Any string passed in that contains
// a nul byte is rejected with a *NulError before native code runs. Fields that
// libalpm may leave unset are returned as (value, ok) so that an absent field
// is distinguishable from an empty one.
//
// # Backends
//
// Built with cgo and the libalpm build tag, the package links the system
// libalpm through pkg-config:
//
//	go build -tags libalpm ./...
//
// Otherwise it uses a built-in emulation that reads pacman's on-disk formats
// directly (local database directories, sync database archives and package
// files). Native reports which one is in use.
package alpm
