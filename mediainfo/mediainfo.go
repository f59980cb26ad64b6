// Package mediainfo binds the MediaInfo native library as a probe.Engine.
//
// The binding loads libmediainfo at runtime (no cgo) and speaks its
// buffer-feeding protocol: Open_Buffer_Init declares the absolute offset
// of the next buffer, Open_Buffer_Continue hands the bytes over and
// returns status bits, and Open_Buffer_Continue_GoTo_Get reports the
// offset the parser wants next.
package mediainfo

import (
	"errors"
	"fmt"

	"github.com/ebitengine/purego"
)

// Lib is a loaded MediaInfo library. One Lib can create many engines.
type Lib struct {
	newHandle          func() uintptr
	deleteHandle       func(uintptr)
	openBufferInit     func(handle uintptr, size, offset uint64) uintptr
	openBufferContinue func(handle uintptr, buf *byte, n uintptr) uintptr
	goToGet            func(handle uintptr) uintptr
	openBufferFinalize func(handle uintptr) uintptr
	informFn           func(handle uintptr, reserved uintptr) string
	optionFn           func(handle uintptr, name, value string) string
	closeHandle        func(uintptr)
}

// Load opens the MediaInfo shared library. With no arguments it tries the
// platform's conventional names; otherwise the given paths are tried in
// order.
func Load(names ...string) (*Lib, error) {
	if len(names) == 0 {
		names = defaultLibNames()
	}

	var errs []error
	for _, name := range names {
		h, err := dlopen(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		l := &Lib{}
		l.register(h)
		return l, nil
	}
	return nil, fmt.Errorf("mediainfo: load library: %w", errors.Join(errs...))
}

// register binds the ANSI entry points. The A variants take and return
// char* strings, which purego marshals directly.
func (l *Lib) register(h uintptr) {
	purego.RegisterLibFunc(&l.newHandle, h, "MediaInfoA_New")
	purego.RegisterLibFunc(&l.deleteHandle, h, "MediaInfoA_Delete")
	purego.RegisterLibFunc(&l.openBufferInit, h, "MediaInfoA_Open_Buffer_Init")
	purego.RegisterLibFunc(&l.openBufferContinue, h, "MediaInfoA_Open_Buffer_Continue")
	purego.RegisterLibFunc(&l.goToGet, h, "MediaInfoA_Open_Buffer_Continue_GoTo_Get")
	purego.RegisterLibFunc(&l.openBufferFinalize, h, "MediaInfoA_Open_Buffer_Finalize")
	purego.RegisterLibFunc(&l.informFn, h, "MediaInfoA_Inform")
	purego.RegisterLibFunc(&l.optionFn, h, "MediaInfoA_Option")
	purego.RegisterLibFunc(&l.closeHandle, h, "MediaInfoA_Close")
}
