package utils

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"

	"github.com/mogaika/glacier_browser/config"
)

// BytesToString decodes bs up to the first NUL with the configured charmap.
func BytesToString(bs []byte) string {
	n := BytesStringLength(bs)

	s, _, err := transform.Bytes(config.GetEncoding().NewDecoder(), bs[0:n])
	if err != nil {
		return string(bs[0:n])
	}

	return string(s)
}

func BytesStringLength(bs []byte) int {
	if l := bytes.IndexByte(bs, 0); l == -1 {
		return len(bs)
	} else {
		return l
	}
}

// StringToBytes encodes s with the configured charmap, unmappable runes are replaced.
func StringToBytes(s string, nilTerminate bool) []byte {
	bs, _, err := transform.Bytes(encoding.ReplaceUnsupported(config.GetEncoding().NewEncoder()), []byte(s))
	if err != nil {
		bs = []byte(s)
	}

	if nilTerminate {
		bs = append(bs, 0)
	}
	return bs
}
