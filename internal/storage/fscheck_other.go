//go:build !darwin && !linux

package storage

// detectFilesystemType cannot tell filesystems apart here; report unknown
// so the database is allowed.
func detectFilesystemType(string) (string, error) {
	return "unknown", nil
}
