// Package romfile reads ROM and boot ROM images from disk, unpacking
// .zip, .7z and .gz containers on the way.
package romfile

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bodgit/sevenzip"
)

// ErrEmptyArchive is returned when an archive holds no regular file.
var ErrEmptyArchive = errors.New("romfile: archive contains no files")

// ErrTooLarge is returned when an unpacked image exceeds MaxImageSize.
var ErrTooLarge = errors.New("romfile: unpacked image too large")

// MaxImageSize is the largest image a container may unpack to: 8 MiB, the
// biggest ROM any supported mapper can address.
const MaxImageSize = 8 << 20

// romExts are preferred when an archive holds more than one file.
var romExts = []string{".gb", ".gbc", ".bin", ".rom"}

// Load reads the file at path and returns the unpacked image.
func Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	out, err := Decode(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Decode unpacks data according to the extension of name. Unknown
// extensions are returned unchanged.
func Decode(name string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		return readLimited(zr)
	case ".zip":
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("zip: %w", err)
		}
		entries := make([]entry, 0, len(zr.File))
		for _, f := range zr.File {
			if f.FileInfo().IsDir() {
				continue
			}
			entries = append(entries, entry{name: f.Name, open: f.Open})
		}
		return readEntry(entries)
	case ".7z":
		sr, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, fmt.Errorf("7z: %w", err)
		}
		entries := make([]entry, 0, len(sr.File))
		for _, f := range sr.File {
			if f.FileInfo().IsDir() {
				continue
			}
			entries = append(entries, entry{name: f.Name, open: f.Open})
		}
		return readEntry(entries)
	}
	return data, nil
}

// List walks dir and returns every loadable ROM or archive, sorted.
func List(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".gb", ".zip", ".7z", ".gz":
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out, err
}

type entry struct {
	name string
	open func() (io.ReadCloser, error)
}

// readEntry reads the first entry with a ROM extension, or the first entry.
func readEntry(entries []entry) ([]byte, error) {
	if len(entries) == 0 {
		return nil, ErrEmptyArchive
	}
	pick := entries[0]
pickLoop:
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.name))
		for _, want := range romExts {
			if ext == want {
				pick = e
				break pickLoop
			}
		}
	}
	rc, err := pick.open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", pick.name, err)
	}
	defer rc.Close()
	out, err := readLimited(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pick.name, err)
	}
	return out, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageSize {
		return nil, ErrTooLarge
	}
	return data, nil
}
