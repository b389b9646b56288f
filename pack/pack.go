package pack

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mogaika/glacier_browser/utils"
)

// Instance is a decoded file that can be serialized back.
type Instance interface {
	Marshal(log *utils.Logger) ([]byte, error)
}

type FileLoader func(name string, data []byte, log *utils.Logger) (Instance, error)

var gHandlers map[string]FileLoader = make(map[string]FileLoader, 0)

func SetHandler(format string, ldr FileLoader) {
	gHandlers[strings.ToUpper(format)] = ldr
}

// Formats lists registered extensions.
func Formats() []string {
	r := make([]string, 0, len(gHandlers))
	for ext := range gHandlers {
		r = append(r, ext)
	}
	sort.Strings(r)
	return r
}

func Format(name string) string {
	return strings.ToUpper(filepath.Ext(name))
}

func HasHandler(name string) bool {
	_, found := gHandlers[Format(name)]
	return found
}

func CallHandler(name string, data []byte, log *utils.Logger) (Instance, error) {
	ext := Format(name)

	if h, found := gHandlers[ext]; found {
		return h(name, data, log.WithField("file", name))
	} else {
		return nil, fmt.Errorf("[pack] Cannot find handler for '%s' extension", ext)
	}
}
