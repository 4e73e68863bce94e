package snl

import (
	"encoding/binary"
	"unsafe"
)

// NativeEndian is the host byte order; netlink messages travel in it.
var NativeEndian binary.ByteOrder

// hostOrder is the internal alias used by the codecs.
var hostOrder binary.ByteOrder

func init() {
	x := 0x1001
	if *(*byte)(unsafe.Pointer(&x)) == 0x10 {
		NativeEndian = binary.BigEndian
	} else {
		NativeEndian = binary.LittleEndian
	}
	hostOrder = NativeEndian
}
