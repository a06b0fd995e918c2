package preflight

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"

	"tunesync/internal/config"
	"tunesync/internal/musicdb"
)

func failed(name, path, format string, args ...any) Result {
	return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s)", path, fmt.Sprintf(format, args...))}
}

// statError turns a stat failure into a result.
func statError(name, path string, err error) Result {
	if errors.Is(err, fs.ErrNotExist) {
		return failed(name, path, "does not exist")
	}
	return failed(name, path, "stat: %v", err)
}

// CheckDirectoryAccess passes when path is a directory the process can list
// and write to.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		return statError(name, path, err)
	}
	if !info.IsDir() {
		return failed(name, path, "is not a directory")
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return failed(name, path, "insufficient permissions: %v", err)
	}
	return Result{Name: name, Passed: true, Detail: path + " (read/write ok)"}
}

// CheckFileReadable passes when path is a regular file the process can read.
func CheckFileReadable(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return statError(name, path, err)
	}
	if !info.Mode().IsRegular() {
		return failed(name, path, "not a regular file")
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return failed(name, path, "not readable: %v", err)
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, info.Size())}
}

// CheckMusicDBFile extends CheckFileReadable by parsing the envelope header,
// so a file that is not a musicdb library fails before any decryption.
func CheckMusicDBFile(name, path string) Result {
	result := CheckFileReadable(name, path)
	if !result.Passed {
		return result
	}
	f, err := os.Open(path)
	if err != nil {
		return failed(name, path, "open: %v", err)
	}
	defer f.Close()

	head := make([]byte, musicdb.HeaderSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return failed(name, path, "read header: %v", err)
	}
	header, err := musicdb.ParseHeader(head[:n])
	if err != nil {
		return failed(name, path, "%v", err)
	}
	result.Detail = fmt.Sprintf("%s (%d bytes, %d encrypted)", path, header.FileSize, header.CryptSize())
	return result
}

// CheckKey verifies that musicdb key material is configured and has an AES
// key length.
func CheckKey(cfg *config.Config) Result {
	const name = "Decryption key"

	key, err := cfg.MusicDBKey()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	switch len(key) {
	case 16, 24, 32:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("AES-%d", len(key)*8)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("key is %d bytes, want 16, 24 or 32", len(key))}
	}
}
