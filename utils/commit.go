package utils

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// CommitFile writes the output of produce to a temp file next to path and renames
// it over path only if produce and the write both succeed.
func CommitFile(path string, produce func() ([]byte, error)) error {
	data, err := produce()
	if err != nil {
		return err
	}

	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0666)
	if err != nil {
		return errors.Wrapf(err, "Failed to create temp file for %q", path)
	}

	committed := false
	defer func() {
		if !committed {
			os.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "Failed to write %q", tmp)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "Failed to close %q", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrapf(err, "Failed to commit %q", path)
	}
	committed = true
	return nil
}
