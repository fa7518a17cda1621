package alpm

import (
	"iter"
	"runtime"
	"sync"
	"unsafe"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// List is a borrowed view of a list that libalpm owns. It stays usable until
// the handle is mutated or released. Every call walks the list from its head,
// so a List can be iterated any number of times.
type List[T any] struct {
	v    view
	head backend.List
	conv func(view, unsafe.Pointer) T
}

func newList[T any](v view, head backend.List, conv func(view, unsafe.Pointer) T) List[T] {
	return List[T]{v: v, head: head, conv: conv}
}

// Len counts the nodes of the list.
func (l List[T]) Len() int {
	if l.conv == nil {
		return 0
	}
	l.v.lock()
	defer l.v.unlock()
	return backend.ListCount(l.head)
}

// IsEmpty reports whether the list has no elements without walking it.
func (l List[T]) IsEmpty() bool {
	if l.conv == nil {
		return true
	}
	l.v.lock()
	defer l.v.unlock()
	return l.head == nil
}

// First returns the head element.
func (l List[T]) First() (T, bool) {
	for item := range l.All() {
		return item, true
	}
	var zero T
	return zero, false
}

// step converts the element at it and advances. The handle is only held for
// the duration of the step so the caller's loop body may use it.
func (l List[T]) step(it backend.List) (T, backend.List) {
	l.v.lock()
	defer l.v.unlock()
	return l.conv(l.v, backend.ListData(it)), backend.ListNext(it)
}

// All iterates the list in order.
func (l List[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		if l.conv == nil {
			return
		}
		it := l.head
		for it != nil {
			var item T
			item, it = l.step(it)
			if !yield(item) {
				return
			}
		}
	}
}

// Slice copies the elements into a new slice. Elements that are themselves
// views keep their own lifetime rules.
func (l List[T]) Slice() []T {
	var out []T
	for item := range l.All() {
		out = append(out, item)
	}
	return out
}

// OwnedList is a list that libalpm allocated for the caller. It does not
// borrow from the handle; it must be released with Close (or Detach), after
// which it behaves as empty.
type OwnedList[T any] struct {
	mu   sync.Mutex
	head backend.List
	kind backend.ElemKind
	conv func(unsafe.Pointer) T
}

func newOwnedList[T any](head backend.List, kind backend.ElemKind, conv func(unsafe.Pointer) T) *OwnedList[T] {
	l := &OwnedList[T]{head: head, kind: kind, conv: conv}
	runtime.SetFinalizer(l, (*OwnedList[T]).Close)
	return l
}

// Len counts the elements; 0 after Close.
func (l *OwnedList[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return backend.ListCount(l.head)
}

// IsEmpty reports whether the list has no elements or was closed.
func (l *OwnedList[T]) IsEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head == nil
}

// All iterates a snapshot of the list taken when iteration starts.
func (l *OwnedList[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range l.Slice() {
			if !yield(item) {
				return
			}
		}
	}
}

// Slice copies the elements into a new slice.
func (l *OwnedList[T]) Slice() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []T
	for it := l.head; it != nil; it = backend.ListNext(it) {
		out = append(out, l.conv(backend.ListData(it)))
	}
	return out
}

// Close frees the list and its elements. It is safe to call more than once.
func (l *OwnedList[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.head != nil {
		backend.ListFreeInner(l.head, l.kind)
		l.head = nil
	}
	runtime.SetFinalizer(l, nil)
	return nil
}

// Detach copies the elements out and frees the list.
func (l *OwnedList[T]) Detach() []T {
	out := l.Slice()
	_ = l.Close()
	return out
}

// rawList is a native list built from Go values for a setter. The native
// setters copy what they are given, so the list is always freed by the
// caller.
type rawList struct {
	head backend.List
	kind backend.ElemKind
}

// newStringList validates every element before allocating anything, so a
// nul byte anywhere leaves both Go and native state untouched.
func newStringList(items []string) (*rawList, error) {
	for _, s := range items {
		if err := checkNul(s); err != nil {
			return nil, err
		}
	}
	r := &rawList{kind: backend.ElemString}
	for _, s := range items {
		c, _ := toCStr(s)
		r.head = backend.ListAppend(r.head, c.ptr())
	}
	return r, nil
}

// newDependList converts owned dependencies into native records.
func newDependList(items []Depend) (*rawList, error) {
	r := &rawList{kind: backend.ElemDepend}
	for _, d := range items {
		nd, err := d.native()
		if err != nil {
			r.free()
			return nil, err
		}
		r.head = backend.ListAppend(r.head, unsafe.Pointer(nd))
	}
	return r, nil
}

func (r *rawList) free() {
	if r.head != nil {
		backend.ListFreeInner(r.head, r.kind)
		r.head = nil
	}
}

func convString(field string) func(view, unsafe.Pointer) string {
	return func(_ view, p unsafe.Pointer) string {
		return strictStr(backend.Str(p), field)
	}
}

func ownedString(p unsafe.Pointer) string {
	return strictStr(backend.Str(p), "list element")
}
