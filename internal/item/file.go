package item

import "path/filepath"

// File is a filesystem entry shown by the file browser and recent files.
type File struct {
	Display
	Path string
	Kind Kind
}

// FileOption customises a File at construction.
type FileOption func(*File)

// WithPathDescription shows the home-relative path as the description.
func WithPathDescription(home string) FileOption {
	return func(f *File) {
		f.description = Tildify(f.Path, home)
	}
}

// NewFile creates a file item. path must be absolute.
func NewFile(path string, kind Kind, opts ...FileOption) (*File, error) {
	if err := requireAbs(path); err != nil {
		return nil, err
	}
	f := &File{
		Display: Display{label: filepath.Base(path), alwaysShow: true},
		Path:    path,
		Kind:    kind,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}
