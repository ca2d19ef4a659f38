package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// ErrMalformed is returned when a cache file is not valid JSON of the
// expected shape.
var ErrMalformed = errors.New("malformed cache file")

// PruneFunc is told which entries revalidation dropped from a cache file.
type PruneFunc func(file string, pruned []string)

const indent = "    "

// jsonFile tracks one cache file on disk: its last seen modification time and
// the hash of its last read or written content.
type jsonFile struct {
	path  string
	empty []byte
	mtime time.Time
	hash  [sha256.Size]byte
}

// read returns the file content, creating it with f.empty when missing.
func (f *jsonFile) read() ([]byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(f.path, f.empty, 0o644); err != nil {
			return nil, fmt.Errorf("creating %s: %w", f.path, err)
		}
		data = f.empty
	} else if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	f.hash = sha256.Sum256(data)
	f.stat()
	return data, nil
}

// write stores data unless it matches what was last read or written and the
// file has not been touched since. It reports whether the file was written.
func (f *jsonFile) write(data []byte) (bool, error) {
	sum := sha256.Sum256(data)
	if sum == f.hash && !f.mtime.IsZero() {
		if changed, err := f.changed(); err == nil && !changed {
			return false, nil
		}
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return false, fmt.Errorf("writing %s: %w", f.path, err)
	}
	f.hash = sum
	f.stat()
	return true, nil
}

func (f *jsonFile) stat() {
	if info, err := os.Stat(f.path); err == nil {
		f.mtime = info.ModTime()
	}
}

// changed reports whether the file was modified since the last read or write.
func (f *jsonFile) changed() (bool, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return info.ModTime().After(f.mtime), nil
}

func (f *jsonFile) malformed(err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, f.path, err)
}

type member struct {
	key   string
	value json.RawMessage
}

// decodeObject parses a JSON object keeping its member order.
func decodeObject(data []byte) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, member{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after object")
	}
	return members, nil
}

// encodeObject writes members as an indented JSON object in order.
func encodeObject(members []member) ([]byte, error) {
	if len(members) == 0 {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, m := range members {
		key, err := marshal(m.key, "")
		if err != nil {
			return nil, err
		}
		buf.WriteString(indent)
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(m.value)
		if i < len(members)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshal encodes v indented by prefix without HTML escaping.
func marshal(v any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// stringList encodes paths as an indented array, "[]" when empty.
func stringList(paths []string, prefix string) ([]byte, error) {
	if len(paths) == 0 {
		return []byte("[]"), nil
	}
	return marshal(paths, prefix)
}
