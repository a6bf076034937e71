package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNetworkFilesystem marks a database path that SQLite cannot lock safely.
var ErrNetworkFilesystem = errors.New("network filesystem")

// NetworkFilesystemError names the offending path and filesystem type.
type NetworkFilesystemError struct {
	Path   string
	FSType string
}

func (e *NetworkFilesystemError) Error() string {
	return fmt.Sprintf("history database %q is on network filesystem %q; SQLite requires a local filesystem. Set history.path to a local file", e.Path, e.FSType)
}

func (e *NetworkFilesystemError) Is(target error) bool { return target == ErrNetworkFilesystem }

// fsTypeFunc reports the filesystem type holding an existing path.
type fsTypeFunc func(path string) (string, error)

var networkFSTypes = []string{"afpfs", "ceph", "cifs", "nfs", "smb2", "smbfs", "webdav"}

func validateSQLiteFilesystem(path string) error {
	return validateFilesystem(path, detectFilesystemType)
}

func validateFilesystem(path string, typeOf fsTypeFunc) error {
	if path == "" {
		return fmt.Errorf("sqlite path is empty")
	}

	// The database file and its directory may not exist yet.
	anchor, err := nearestExistingPath(path)
	if err != nil {
		return fmt.Errorf("resolve database path %q: %w", path, err)
	}
	fsType, err := typeOf(anchor)
	if err != nil {
		return fmt.Errorf("detect filesystem for %q: %w", anchor, err)
	}
	if isNetworkFilesystem(fsType) {
		return &NetworkFilesystemError{Path: path, FSType: fsType}
	}
	return nil
}

func nearestExistingPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	for dir := abs; ; {
		_, statErr := os.Stat(dir)
		switch {
		case statErr == nil:
			return dir, nil
		case !errors.Is(statErr, os.ErrNotExist):
			return "", fmt.Errorf("stat %q: %w", dir, statErr)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no existing parent for %q", abs)
		}
		dir = parent
	}
}

func isNetworkFilesystem(fsType string) bool {
	return slices.Contains(networkFSTypes, strings.ToLower(strings.TrimSpace(fsType)))
}
