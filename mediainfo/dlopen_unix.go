//go:build darwin || linux

package mediainfo

import (
	"runtime"

	"github.com/ebitengine/purego"
)

func defaultLibNames() []string {
	if runtime.GOOS == "darwin" {
		return []string{"libmediainfo.dylib", "libmediainfo.0.dylib"}
	}
	return []string{"libmediainfo.so.0", "libmediainfo.so"}
}

func dlopen(name string) (uintptr, error) {
	return purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}
