// Package item defines the entries shown in a consult picker.
package item

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotAbsolute is returned when an item is constructed from a relative path.
var ErrNotAbsolute = errors.New("path is not absolute")

// Item is the display capability shared by every picker entry.
type Item interface {
	Label() string
	Description() string
	Detail() string
	// AlwaysShow asks the widget to keep the item regardless of its own
	// text filter; consult does the filtering itself.
	AlwaysShow() bool
	Visible() bool
	SetVisible(bool)
}

// Display holds the fields common to all items and implements Item.
type Display struct {
	label       string
	description string
	detail      string
	alwaysShow  bool
	hidden      bool
}

func (d *Display) Label() string       { return d.label }
func (d *Display) Description() string { return d.description }
func (d *Display) Detail() string      { return d.detail }
func (d *Display) AlwaysShow() bool    { return d.alwaysShow }
func (d *Display) Visible() bool       { return !d.hidden }
func (d *Display) SetVisible(v bool)   { d.hidden = !v }

// Kind is a bit set describing a filesystem entry.
type Kind uint8

const (
	KindFile Kind = 1 << iota
	KindDir
	KindSymlink
)

// IsDir reports whether the kind includes the directory bit.
func (k Kind) IsDir() bool { return k&KindDir != 0 }

// IsSymlink reports whether the kind includes the symlink bit.
func (k Kind) IsSymlink() bool { return k&KindSymlink != 0 }

func (k Kind) String() string {
	switch {
	case k.IsDir() && k.IsSymlink():
		return "symlink-dir"
	case k.IsSymlink():
		return "symlink-file"
	case k.IsDir():
		return "dir"
	case k&KindFile != 0:
		return "file"
	default:
		return "unknown"
	}
}

// Tildify replaces a leading home directory in path with "~".
func Tildify(path, home string) string {
	if home == "" || home == "/" {
		return path
	}
	if path == home {
		return "~"
	}
	if strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + path[len(home):]
	}
	return path
}

func requireAbs(path string) error {
	if !filepath.IsAbs(path) {
		return fmt.Errorf("%w: %s", ErrNotAbsolute, path)
	}
	return nil
}
