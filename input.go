package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/andybalholm/brotli"
)

// openInput opens path for reading. "-" is stdin; files ending in .br are
// brotli-decompressed on the fly.
func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if strings.HasSuffix(path, ".br") {
		return &brotliFile{Reader: brotli.NewReader(f), file: f}, nil
	}
	return f, nil
}

type brotliFile struct {
	*brotli.Reader
	file *os.File
}

func (b *brotliFile) Close() error {
	return b.file.Close()
}

// readInput reads the whole of path
func readInput(path string) (string, error) {
	r, err := openInput(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
