package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameGenerator(t *testing.T) {
	ng := NewNameGenerator(6, 1)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name := ng.Name()
		assert.LessOrEqual(t, len(name), 6)
		assert.False(t, seen[name], name)
		seen[name] = true
	}
}
