package fingerprint

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"
)

const readChunkSize = 1 << 20

// Size is the length of a fingerprint string.
const Size = 64

// File hashes the file at path.
func File(path string) (string, error) {
	return FileContext(context.Background(), path)
}

// FileContext hashes the file at path, checking ctx between reads.
func FileContext(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	fp, err := Reader(ctx, file)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return fp, nil
}

// Reader hashes everything r yields.
func Reader(ctx context.Context, r io.Reader) (string, error) {
	hasher := blake3.New()
	buf := make([]byte, readChunkSize)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		n, err := r.Read(buf)
		if n > 0 {
			_, _ = hasher.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Bytes hashes data.
func Bytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Valid reports whether value looks like a fingerprint produced by this package.
func Valid(value string) bool {
	if len(value) != Size {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}
