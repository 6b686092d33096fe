package archive

import (
	"archive/tar"
	"io"
	"os"
	"time"
)

func addDir(tw *tar.Writer, path, name string) error {
	stat, err := os.Stat(path)
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(stat, "")
	if err != nil {
		return err
	}
	header.Name = name + "/"
	return tw.WriteHeader(header)
}

// addFile copies the regular file at path into the archive as name.
func addFile(tw *tar.Writer, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(stat, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, file)
	return err
}

func addBytes(tw *tar.Writer, data []byte, name string) error {
	err := tw.WriteHeader(&tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     0644,
		Size:     int64(len(data)),
		ModTime:  time.Now(),
	})
	if err == nil {
		_, err = tw.Write(data)
	}
	return err
}
