package alpm

import (
	"io/fs"
	"iter"

	"github.com/pacwrap/alpm-go/pkg/alpm/internal/backend"
)

// FileList is a view of the files a package installs, sorted by path. Paths
// are relative to the root and directories end in "/".
type FileList struct {
	v view
	p backend.FileList
}

// File is a detached copy of one file entry.
type File struct {
	Name string
	Size int64
	Mode uint32
}

// FileMode converts Mode to the equivalent fs.FileMode.
func (f File) FileMode() fs.FileMode {
	m := fs.FileMode(f.Mode & 0o777)
	switch f.Mode & 0o170000 {
	case 0o040000:
		m |= fs.ModeDir
	case 0o120000:
		m |= fs.ModeSymlink
	case 0o060000:
		m |= fs.ModeDevice
	case 0o020000:
		m |= fs.ModeDevice | fs.ModeCharDevice
	case 0o010000:
		m |= fs.ModeNamedPipe
	case 0o140000:
		m |= fs.ModeSocket
	}
	if f.Mode&0o4000 != 0 {
		m |= fs.ModeSetuid
	}
	if f.Mode&0o2000 != 0 {
		m |= fs.ModeSetgid
	}
	if f.Mode&0o1000 != 0 {
		m |= fs.ModeSticky
	}
	return m
}

func fileFromNative(f backend.File) File {
	return File{
		Name: strictStr(backend.FileGetName(f), "file name"),
		Size: backend.FileGetSize(f),
		Mode: backend.FileGetMode(f),
	}
}

func (l FileList) Len() int {
	if l.p == nil {
		return 0
	}
	l.v.lock()
	defer l.v.unlock()
	return backend.FileListCount(l.p)
}

// Files copies every entry. A package without a file list yields an empty
// slice.
func (l FileList) Files() []File {
	if l.p == nil {
		return []File{}
	}
	l.v.lock()
	defer l.v.unlock()
	n := backend.FileListCount(l.p)
	out := make([]File, 0, n)
	for i := range n {
		out = append(out, fileFromNative(backend.FileListAt(l.p, i)))
	}
	return out
}

// All iterates the entries in order, locking the handle once per entry.
func (l FileList) All() iter.Seq[File] {
	return func(yield func(File) bool) {
		if l.p == nil {
			return
		}
		for i := 0; ; i++ {
			f, ok := l.at(i)
			if !ok || !yield(f) {
				return
			}
		}
	}
}

func (l FileList) at(i int) (File, bool) {
	l.v.lock()
	defer l.v.unlock()
	if i >= backend.FileListCount(l.p) {
		return File{}, false
	}
	return fileFromNative(backend.FileListAt(l.p, i)), true
}

// Contains looks path up exactly. A path that is not in the list is reported
// as false; only a nul byte in path is an error.
func (l FileList) Contains(path string) (File, bool, error) {
	c, err := toCStr(path)
	if err != nil {
		return File{}, false, err
	}
	defer c.free()
	if l.p == nil {
		return File{}, false, nil
	}
	l.v.lock()
	defer l.v.unlock()
	f := backend.FileListContains(l.p, c.p)
	if f == nil {
		return File{}, false, nil
	}
	return fileFromNative(f), true, nil
}
