package vfs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/glacier_browser/utils"
)

// DirectoryDriver exposes one flat host directory of extracted assets.
type DirectoryDriver struct {
	path string
}

func NewDirectoryDriver(path string) *DirectoryDriver {
	return &DirectoryDriver{path: path}
}

func (dd *DirectoryDriver) Name() string { return filepath.Base(dd.path) }
func (dd *DirectoryDriver) Path() string { return dd.path }

func (dd *DirectoryDriver) List() ([]string, error) {
	entries, err := os.ReadDir(dd.path)
	if err != nil {
		return nil, errors.Wrapf(err, "Error listing directory '%s'", dd.path)
	}
	result := make([]string, 0, len(entries))
	for _, e := range entries {
		// temp files of unfinished commits
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		result = append(result, e.Name())
	}
	sort.Strings(result)
	return result, nil
}

func (dd *DirectoryDriver) resolve(name string) (string, error) {
	if name != filepath.Base(name) || name == ".." || name == "." {
		return "", errors.Errorf("Invalid element name '%s'", name)
	}
	return filepath.Join(dd.path, name), nil
}

func (dd *DirectoryDriver) Stat(name string) (Entry, error) {
	path, err := dd.resolve(name)
	if err != nil {
		return Entry{}, err
	}
	s, err := os.Stat(path)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "Stat '%s'", name)
	}
	return Entry{Name: name, Size: s.Size(), IsDir: s.IsDir()}, nil
}

func (dd *DirectoryDriver) File(name string) (File, error) {
	e, err := dd.Stat(name)
	if err != nil {
		return nil, err
	}
	if e.IsDir {
		return nil, errors.Errorf("'%s' is directory, not a file", name)
	}
	return &directoryFile{path: filepath.Join(dd.path, name), size: e.Size}, nil
}

type directoryFile struct {
	path string
	size int64
}

func (f *directoryFile) Name() string { return filepath.Base(f.path) }

// Size as of the Stat that opened the file or the last Commit.
func (f *directoryFile) Size() int64 { return f.size }

func (f *directoryFile) ReadAll() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	f.size = int64(len(data))
	return data, nil
}

func (f *directoryFile) Commit(data []byte) error {
	if err := utils.CommitFile(f.path, func() ([]byte, error) { return data, nil }); err != nil {
		return err
	}
	f.size = int64(len(data))
	return nil
}
