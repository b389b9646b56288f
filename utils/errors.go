package utils

import "github.com/pkg/errors"

// Decode and encode failures are classified by wrapping one of these.
// Use errors.Is to test the class.
var (
	// truncated or corrupt stream, fatal for the file
	ErrUnexpectedEndOfStream = errors.New("unexpected end of stream")
	// counts or offsets inconsistent with declared sizes
	ErrStructuralMismatch = errors.New("structural mismatch")
	// embedded sub-format version tag not recognized
	ErrVersionMismatch = errors.New("version mismatch")
	// input supplied by the caller cannot be encoded (missing uv map, wrong rig)
	ErrUserInputMismatch = errors.New("user input mismatch")
)
