package document

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Dispose removes a processed source document from its input location.
// With archiveDir set the file is moved there, otherwise it is deleted.
// An existing file in archiveDir is never overwritten: the archived copy
// gets the first free counter suffix instead (contract_1.docx, ...).
func Dispose(path, archiveDir string) (string, error) {
	if archiveDir == "" {
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("failed to delete %s: %w", path, err)
		}
		return "", nil
	}

	if err := os.MkdirAll(archiveDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	dest, err := reserveArchiveName(archiveDir, filepath.Base(path))
	if err != nil {
		return "", err
	}

	// dest now exists as an empty placeholder; rename replaces it.
	if err := os.Rename(path, dest); err != nil {
		// Rename fails across filesystems; copy and delete instead.
		if err := copyFile(path, dest); err != nil {
			_ = os.Remove(dest)
			return "", fmt.Errorf("failed to archive %s: %w", path, err)
		}
		if err := os.Remove(path); err != nil {
			return dest, fmt.Errorf("archived %s but failed to delete the original: %w", path, err)
		}
	}
	return dest, nil
}

// maxArchiveSuffix bounds the search for a free archive name.
const maxArchiveSuffix = 10000

// reserveArchiveName creates an empty file under the first free name for
// base in dir and returns its path. O_EXCL makes the reservation atomic.
func reserveArchiveName(dir, base string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	for i := 0; i < maxArchiveSuffix; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		dest := filepath.Join(dir, name)

		f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600) //nolint:gosec // Archive path built from a base name
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to reserve archive name: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to reserve archive name: %w", err)
		}
		return dest, nil
	}
	return "", fmt.Errorf("%w: %s", ErrArchiveFull, filepath.Join(dir, base))
}

// copyFile copies src over the reserved placeholder dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // Source document path
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // Reserved archive path
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
