package platform

import (
	"os"
	"runtime"

	"github.com/spf13/afero"
)

// ExecutableMode is applied to templates marked executable.
const ExecutableMode os.FileMode = 0755

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(fsys afero.Fs, path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return fsys.Chmod(path, mode)
}

// CopyFile copies src to dst verbatim, replacing dst if it exists. The
// source's permission bits are kept.
func CopyFile(fsys afero.Fs, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(fsys, src)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fsys, dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	// WriteFile only applies the mode on creation.
	return Chmod(fsys, dst, info.Mode().Perm())
}
