package utils

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"strings"
)

// RuntimeResourceID is the 56 bit resource identifier of a resource path.
type RuntimeResourceID uint64

// GameResourceHash returns the first 8 bytes of md5(lowercase(path)) big-endian
// with the top byte cleared.
func GameResourceHash(path string) RuntimeResourceID {
	sum := md5.Sum([]byte(strings.ToLower(path)))
	return RuntimeResourceID(binary.BigEndian.Uint64(sum[:8]) & 0x00FFFFFFFFFFFFFF)
}

func (id RuntimeResourceID) String() string {
	return fmt.Sprintf("%016X", uint64(id))
}
