package utils

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

var spewConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableCapacities:       true,
	DisablePointerAddresses: true,
	SortKeys:                true,
}

func SDump(a ...interface{}) string {
	return spewConfig.Sdump(a...)
}

// SDumpDepth is SDump with nesting limited to depth levels, 0 means unlimited.
func SDumpDepth(depth int, a ...interface{}) string {
	cfg := *spewConfig
	cfg.MaxDepth = depth
	return cfg.Sdump(a...)
}

// PrintableBytes renders buf as text, escaping everything outside printable ascii.
func PrintableBytes(buf []byte) string {
	var sb strings.Builder
	for _, b := range buf {
		if b >= 0x20 && b < 0x7f {
			sb.WriteByte(b)
		} else {
			fmt.Fprintf(&sb, "\\x%.2x", b)
		}
	}
	return sb.String()
}
