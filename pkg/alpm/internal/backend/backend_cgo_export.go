//go:build cgo && libalpm

package backend

// #include <stdlib.h>
import "C"

import "unsafe"

//export goalpmLog
func goalpmLog(ctx unsafe.Pointer, level C.int, msg *C.char) {
	v, ok := logContexts.Load(ctx)
	if !ok {
		return
	}
	v.(LogFunc)(int(level), C.GoString(msg))
}
