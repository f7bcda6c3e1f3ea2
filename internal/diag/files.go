package diag

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// ReadCompanion reads a file the model depends on. A file that does not exist
// is classified as ErrMissingCompanion.
func ReadCompanion(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return data, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &Error{Kind: ErrMissingCompanion, Op: "read " + filepath.Base(path), Err: err}
	}
	return nil, &Error{Kind: ErrMalformedContainer, Op: "read " + filepath.Base(path), Err: err}
}

// WriteFile writes data to path, creating the parent directory. Permission
// failures are classified as ErrIOPermission.
func WriteFile(path string, data []byte) error {
	op := "write " + filepath.Base(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return classifyWrite(op, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return classifyWrite(op, err)
	}
	return nil
}

func classifyWrite(op string, err error) error {
	if errors.Is(err, fs.ErrPermission) {
		return &Error{Kind: ErrIOPermission, Op: op, Err: err}
	}
	return err
}
