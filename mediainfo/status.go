package mediainfo

import "github.com/mediakit/probe"

// Status bits returned by Open_Buffer_Continue.
const (
	statusAccepted  uintptr = 0x01
	statusFilled    uintptr = 0x02
	statusUpdated   uintptr = 0x04
	statusFinalized uintptr = 0x08
)

// noSeekRequest is the GoTo_Get value meaning the parser wants the next
// contiguous bytes, (size_t)(-1) in the native API.
const noSeekRequest = ^uintptr(0)

func decodeStatus(bits uintptr) probe.Status {
	return probe.Status{
		Accepted:  bits&statusAccepted != 0,
		Filled:    bits&statusFilled != 0,
		Updated:   bits&statusUpdated != 0,
		Finalized: bits&statusFinalized != 0,
	}
}
