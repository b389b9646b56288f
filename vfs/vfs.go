package vfs

// Entry is listing metadata, producing it must not read file contents.
type Entry struct {
	Name  string
	Size  int64
	IsDir bool
}

type File interface {
	Name() string
	Size() int64
	ReadAll() ([]byte, error)
	// Commit replaces file content atomically
	Commit(data []byte) error
}

type Directory interface {
	Name() string
	List() ([]string, error)
	Stat(name string) (Entry, error)
	File(name string) (File, error)
}
