// Package internalcheck holds static policy tests for the alpm packages.
//
// The tests load the module with golang.org/x/tools/go/packages and inspect
// syntax and types. They keep cgo confined to the backend package, keep
// native pointer types out of the public API and keep error strings in one
// recognisable form. The package has no non-test code.
package internalcheck
