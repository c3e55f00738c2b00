package raid

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DefaultSysfsRoot is the mount point of sysfs.
const DefaultSysfsRoot = "/sys"

// DefaultDevRoot is the directory holding block device nodes.
const DefaultDevRoot = "/dev"

// DefaultReadTimeout bounds every single sysfs read.
const DefaultReadTimeout = 3 * time.Second

// FS is the read-only view of sysfs the reader works on. Paths are relative
// to the sysfs root, e.g. "block/md0/md/array_state".
type FS interface {
	// ReadFile returns the whole content of a pseudo-file. It fails with a
	// KindReadTimeout *Error when the read does not finish in time.
	ReadFile(ctx context.Context, name string) (string, error)
	Exists(name string) bool
	IsDir(name string) bool
	Glob(pattern string) ([]string, error)
	Readlink(name string) (string, error)
}

// SysFS implements FS over a directory tree, normally /sys.
type SysFS struct {
	Root    string
	Timeout time.Duration

	read func(string) ([]byte, error)
}

// NewSysFS returns a SysFS rooted at root. A zero timeout means
// DefaultReadTimeout.
func NewSysFS(root string, timeout time.Duration) *SysFS {
	if root == "" {
		root = DefaultSysfsRoot
	}
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	return &SysFS{
		Root:    root,
		Timeout: timeout,
		read:    os.ReadFile,
	}
}

func (s *SysFS) abs(name string) string {
	return filepath.Join(s.Root, name)
}

// ReadFile reads a pseudo-file under its own deadline. A read stuck in the
// kernel is abandoned, not interrupted; its goroutine exits when the read
// eventually returns.
func (s *SysFS) ReadFile(ctx context.Context, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	read := s.read
	if read == nil {
		read = os.ReadFile
	}
	go func() {
		data, err := read(s.abs(name))
		done <- result{data, err}
	}()

	select {
	case r := <-done:
		return string(r.data), r.err
	case <-ctx.Done():
		return "", newError(KindReadTimeout, "", name, ctx.Err())
	}
}

func (s *SysFS) Exists(name string) bool {
	_, err := os.Stat(s.abs(name))
	return err == nil
}

func (s *SysFS) IsDir(name string) bool {
	fi, err := os.Stat(s.abs(name))
	return err == nil && fi.IsDir()
}

// Glob returns matches relative to the root, in lexical order.
func (s *SysFS) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(s.abs(pattern))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		rel, err := filepath.Rel(s.Root, m)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}

func (s *SysFS) Readlink(name string) (string, error) {
	return os.Readlink(s.abs(name))
}

// IsBlockDevice reports whether path is a block device node.
func IsBlockDevice(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	mode := fi.Mode()
	return mode&fs.ModeDevice != 0 && mode&fs.ModeCharDevice == 0, nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
