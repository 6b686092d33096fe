package archive

import (
	"archive/tar"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"github.com/klauspost/compress/gzip"
	"github.com/koblas/djeese/pkg/printer"
	"github.com/otiai10/copy"
	"github.com/pkg/errors"
)

var staticNameRE = regexp.MustCompile(`^[a-zA-Z]+[a-zA-Z0-9._-]*\.[a-zA-Z]{2,4}$`)

// AllowedExtensions lists the file types the remote accepts as static files.
var AllowedExtensions = []string{
	".js",
	".css",
	".png",
	".jpg",
	".jpeg",
	".gif",
	".htc",
}

// CheckStaticName returns why name cannot be pushed, or nil.
func CheckStaticName(name string) error {
	if !staticNameRE.MatchString(name) {
		return errors.Errorf("File name %q is not a valid file name", name)
	}
	ext := filepath.Ext(name)
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return errors.Errorf("File extension %q is not allowed", ext)
}

// BuildStatic writes a gzipped tarball of sourceDir to w. Entries are named
// below the base name of sourceDir. Files with unacceptable names are left
// out and reported. It returns the number of files packed.
func BuildStatic(w io.Writer, sourceDir string, p *printer.Printer) (int, error) {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	base := filepath.Base(filepath.Clean(sourceDir))
	count := 0

	err := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(base, rel))

		if d.IsDir() {
			return addDir(tw, path, name)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := CheckStaticName(d.Name()); err != nil {
			p.Alwaysf("%s, ignoring...", err)
			return nil
		}

		p.Infof("packing %s", name)
		count++
		return addFile(tw, path, name)
	})
	if err != nil {
		return count, errors.Wrapf(err, "packing %s", sourceDir)
	}

	if err := tw.Close(); err != nil {
		return count, err
	}
	return count, gz.Close()
}

// ExtractStatic unpacks a gzipped tarball into outputDir. The archive is
// unpacked into a staging directory first so a broken download leaves
// outputDir untouched. Existing files are overwritten.
func ExtractStatic(r io.Reader, outputDir string) (int, error) {
	staging, err := os.MkdirTemp("", "djeese-clone")
	if err != nil {
		return 0, errors.Wrap(err, "creating staging directory")
	}
	defer os.RemoveAll(staging)

	count, err := extract(r, staging)
	if err != nil {
		return 0, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return 0, errors.Wrapf(err, "creating %s", outputDir)
	}
	if err := copy.Copy(staging, outputDir); err != nil {
		return 0, errors.Wrapf(err, "copying into %s", outputDir)
	}
	return count, nil
}

func extract(r io.Reader, dir string) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, errors.Wrap(err, "not a valid tar file")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	count := 0
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, errors.Wrap(err, "not a valid tar file")
		}

		target := filepath.Join(dir, filepath.FromSlash(header.Name))
		if !pathIsInside(target, dir) {
			return count, errors.Errorf("archive entry %q points outside the output directory", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return count, err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, header.FileInfo().Mode().Perm()); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0644
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
