// Package csvfile selects local CSV files for upload.
package csvfile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/csvassist/pkg/session"
)

// NotCSVMessage is what the front-ends show when a non-CSV file is picked.
const NotCSVMessage = "Please select a CSV file."

var ErrNotCSV = errors.New(NotCSVMessage)

// IsCSV reports whether path carries a .csv extension, ignoring case.
func IsCSV(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".csv")
}

// Open selects the file at path. An empty path means nothing was selected
// and yields a nil file. The returned close function is always non-nil.
func Open(path string) (*session.File, func() error, error) {
	noop := func() error { return nil }

	path = strings.TrimSpace(path)
	if path == "" {
		return nil, noop, nil
	}
	if !IsCSV(path) {
		return nil, noop, ErrNotCSV
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, noop, errors.Wrapf(err, "could not open %s", path)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, noop, errors.Wrapf(err, "could not stat %s", path)
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, noop, errors.Errorf("%s is a directory", path)
	}

	return &session.File{Name: filepath.Base(path), Content: f}, f.Close, nil
}
