package config

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// encoding of fixed size name fields (bone names, rig names)
var currentEncoding encoding.Encoding = charmap.Windows1252

// SetEncoding accepts web labels ("utf-8", "cp1251", "latin1") and charmap names.
func SetEncoding(name string) error {
	if enc, err := htmlindex.Get(name); err == nil {
		currentEncoding = enc
		return nil
	}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok && strings.EqualFold(cm.String(), name) {
			currentEncoding = cm
			return nil
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func EncodingName() string {
	if name, err := htmlindex.Name(currentEncoding); err == nil {
		return name
	}
	if s, ok := currentEncoding.(fmt.Stringer); ok {
		return s.String()
	}
	return "unknown"
}

func ListEncodings() []string {
	list := []string{"utf-8"}
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() encoding.Encoding {
	return currentEncoding
}
