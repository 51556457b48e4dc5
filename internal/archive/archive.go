// Package archive unpacks the compressed tarballs toolchains ship as:
// .tar.gz for Go, .tar.xz for Node.js.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xi2/xz"
)

// ErrUnsafePath is returned for entries that would land outside dest.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// Extract unpacks src into dest based on its file extension and returns
// the path of the archive's top-level entry inside dest.
func Extract(src, dest string) (string, error) {
	var decompress func(io.Reader) (io.Reader, error)
	switch {
	case strings.HasSuffix(src, ".tar.gz"), strings.HasSuffix(src, ".tgz"):
		decompress = func(r io.Reader) (io.Reader, error) { return gzip.NewReader(r) }
	case strings.HasSuffix(src, ".tar.xz"):
		decompress = func(r io.Reader) (io.Reader, error) { return xz.NewReader(r, 0) }
	default:
		return "", fmt.Errorf("unsupported archive format: %s", src)
	}

	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer f.Close()
	r, err := decompress(f)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", filepath.Base(src), err)
	}
	return extractTar(r, dest)
}

// safeJoin resolves name under dest, rejecting traversal.
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func topLevelOf(name string) string {
	name = strings.TrimPrefix(name, "./")
	top, _, _ := strings.Cut(name, "/")
	return top
}

func extractTar(r io.Reader, dest string) (string, error) {
	tr := tar.NewReader(r)
	var topLevel string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if topLevel == "" {
			topLevel = topLevelOf(hdr.Name)
		}

		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return "", err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return "", err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, hdr.FileInfo().Mode().Perm()); err != nil {
				return "", err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return "", fmt.Errorf("%w: %s -> %s", ErrUnsafePath, hdr.Name, hdr.Linkname)
			}
			if _, err := safeJoin(dest, filepath.Join(filepath.Dir(hdr.Name), hdr.Linkname)); err != nil {
				return "", err
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return "", err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return "", err
			}
		}
	}
	return filepath.Join(dest, topLevel), nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
