//go:build !darwin && !linux

package mediainfo

import (
	"errors"
	"runtime"
)

func defaultLibNames() []string { return []string{"mediainfo"} }

func dlopen(string) (uintptr, error) {
	return 0, errors.New("mediainfo: unsupported platform " + runtime.GOOS)
}
