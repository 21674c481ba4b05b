package artifact

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WasmMagic is the four-byte preamble of every WebAssembly binary.
var WasmMagic = []byte{0x00, 'a', 's', 'm'}

// ErrEmpty is returned when an artifact exists but holds no bytes.
var ErrEmpty = errors.New("artifact is empty")

// Read loads the whole artifact into memory.
func Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	return data, nil
}

// StatNonEmpty returns the size of the artifact at path.
// A missing file, a directory, or a zero-length file is an error.
func StatNonEmpty(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrEmpty)
	}
	return info.Size(), nil
}

// Copy copies src to dst byte for byte, replacing dst if it exists.
// Parent directories of dst are created as needed.
func Copy(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("creating destination directory: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("opening destination: %w", err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fmt.Errorf("copying bytes: %w", err)
	}
	if err := out.Close(); err != nil {
		return n, fmt.Errorf("closing destination: %w", err)
	}
	return n, nil
}

// IsWasm reports whether data starts with the WebAssembly magic number.
func IsWasm(data []byte) bool {
	return bytes.HasPrefix(data, WasmMagic)
}
