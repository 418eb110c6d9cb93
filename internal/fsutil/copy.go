// Package fsutil provides file copy helpers over billy filesystems.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/go-git/go-billy/v5"
)

// NotFoundError reports a copy source that does not exist.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: no such file", e.Path)
}

// CopyFile copies srcName from src to dstName in dst, creating parent
// directories and keeping the source permission bits. A missing source is
// reported as *NotFoundError.
func CopyFile(src billy.Filesystem, srcName string, dst billy.Filesystem, dstName string) error {
	info, err := src.Stat(srcName)
	if errors.Is(err, fs.ErrNotExist) {
		return &NotFoundError{Path: src.Join(src.Root(), srcName)}
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", src.Join(src.Root(), srcName))
	}

	in, err := src.Open(srcName)
	if err != nil {
		return err
	}
	defer in.Close()

	if dir := path.Dir(dstName); dir != "." {
		if err := dst.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	out, err := dst.OpenFile(dstName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// CopyInto copies each name from src into dir of dst, keeping base names.
func CopyInto(src billy.Filesystem, names []string, dst billy.Filesystem, dir string) error {
	for _, name := range names {
		if err := CopyFile(src, name, dst, path.Join(dir, path.Base(name))); err != nil {
			return err
		}
	}
	return nil
}
