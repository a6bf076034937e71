package preimage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattjoyce/witnessgen/internal/log"
)

// Load reads every regular file in dir into a new Store.
//
// Regular files are counted first so the table is sized up front, then
// decoded and read. Any malformed file name aborts
// the load and no store is returned.
func Load(dir string) (*Store, error) {
	logger := log.WithComponent("preimage")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDirectoryUnreadable, dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		regular, err := isRegular(dir, e)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", filepath.Join(dir, e.Name()), err)
		}
		if regular {
			files = append(files, e.Name())
		}
	}

	tbl := newTable(len(files))
	var bytesRead int64
	for _, name := range files {
		key, err := KeyFromFileName(name)
		if err != nil {
			return nil, &MalformedEntryError{File: filepath.Join(dir, name), Reason: err.Error()}
		}

		path := filepath.Join(dir, name)
		value, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read preimage %s: %w", path, err)
		}

		if !tbl.insert(key, value) {
			return nil, &MalformedEntryError{File: path, Reason: "duplicate key " + key.String()}
		}
		bytesRead += int64(len(value))
	}

	s := &Store{tbl: tbl}
	s.fingerprint = fingerprint(tbl, s.Keys())

	logger.Debug("preimages loaded",
		"dir", dir,
		"count", s.Len(),
		"bytes", bytesRead,
		"fingerprint", s.fingerprint,
	)
	return s, nil
}

// stem strips the last extension from a file name.
func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// isRegular reports whether e is a regular file, following symlinks.
func isRegular(dir string, e fs.DirEntry) (bool, error) {
	if e.Type()&fs.ModeSymlink == 0 {
		return e.Type().IsRegular(), nil
	}
	info, err := os.Stat(filepath.Join(dir, e.Name()))
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
