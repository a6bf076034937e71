package storage

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateFilesystem_AllowsLocalFS(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	err := validateFilesystem(dbPath, func(string) (string, error) { return "ext4", nil })
	if err != nil {
		t.Fatalf("expected local filesystem to pass, got: %v", err)
	}
}

func TestValidateFilesystem_RejectsNetworkFS(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	err := validateFilesystem(dbPath, func(string) (string, error) { return "NFS", nil })
	if err == nil {
		t.Fatal("expected network filesystem validation error")
	}
	for _, want := range []string{"NFS", "SQLite requires a local filesystem", "history.path"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected error to contain %q, got %q", want, err)
		}
	}
	if !errors.Is(err, ErrNetworkFilesystem) {
		t.Fatalf("expected ErrNetworkFilesystem, got %v", err)
	}
	var nfsErr *NetworkFilesystemError
	if !errors.As(err, &nfsErr) || nfsErr.Path != dbPath || nfsErr.FSType != "NFS" {
		t.Fatalf("expected *NetworkFilesystemError for %q, got %#v", dbPath, err)
	}
}

func TestValidateFilesystem_DetectorError(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	err := validateFilesystem(dbPath, func(string) (string, error) { return "", errors.New("statfs boom") })
	if err == nil || !strings.Contains(err.Error(), "statfs boom") {
		t.Fatalf("expected detector error, got %v", err)
	}
}

func TestValidateFilesystem_UsesNearestExistingPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dbPath := filepath.Join(root, "nested", "dir", "history.db")

	var inspected string
	err := validateFilesystem(dbPath, func(path string) (string, error) {
		inspected = path
		return "apfs", nil
	})
	if err != nil {
		t.Fatalf("expected local filesystem to pass, got: %v", err)
	}
	if inspected != root {
		t.Fatalf("expected detector to inspect %q, got %q", root, inspected)
	}
}

func TestIsNetworkFilesystem(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"nfs":    true,
		"SMBFS":  true,
		" cifs ": true,
		"ceph":   true,
		"ext4":   false,
		"0x6969": false,
	}
	for fs, want := range cases {
		if got := isNetworkFilesystem(fs); got != want {
			t.Errorf("isNetworkFilesystem(%q)=%v, want %v", fs, got, want)
		}
	}
}
