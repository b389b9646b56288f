package utils

import (
	"math/rand"

	"github.com/Pallinder/go-randomdata"
)

// NameGenerator produces unique, reproducible names that fit into
// fixed size string fields of MaxLength bytes.
type NameGenerator struct {
	MaxLength int
	used      map[string]struct{}
}

func NewNameGenerator(maxLength int, seed int64) *NameGenerator {
	randomdata.CustomRand(rand.New(rand.NewSource(seed)))
	return &NameGenerator{MaxLength: maxLength, used: make(map[string]struct{})}
}

func (ng *NameGenerator) Name() string {
	for {
		name := randomdata.SillyName()
		if ng.MaxLength > 0 && len(name) > ng.MaxLength {
			name = name[:ng.MaxLength]
		}
		if _, exists := ng.used[name]; !exists {
			ng.used[name] = struct{}{}
			return name
		}
	}
}
