package vfs

import (
	"github.com/pkg/errors"
)

func ReadFile(f File) ([]byte, error) {
	data, err := f.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot read file '%s'", f.Name())
	}
	return data, nil
}

func DirectoryGetFile(d Directory, name string) (File, error) {
	f, err := d.File(name)
	if err != nil {
		return nil, errors.Wrapf(err, "Cannot open file '%s'", name)
	}
	return f, nil
}

// DirectoryEntries stats every listed element.
func DirectoryEntries(d Directory) ([]Entry, error) {
	names, err := d.List()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		e, err := d.Stat(name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
