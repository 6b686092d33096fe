package handler

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	securejoin "github.com/cyphar/filepath-securejoin"
	"go.uber.org/zap"
)

// localFile resolves rest below the static root. Symlinks and ".." cannot
// leave the root.
func (state *HandlerState) localFile(rest string) (string, bool) {
	fullPath, err := securejoin.SecureJoin(state.StaticDir, rest)
	if err != nil {
		return "", false
	}

	stats, err := os.Stat(fullPath)
	if err != nil || !stats.Mode().IsRegular() {
		return "", false
	}

	return fullPath, true
}

func (state *HandlerState) serveFile(w http.ResponseWriter, r *http.Request, name string) {
	f, err := os.Open(name)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	d, err := f.Stat()
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}

	header := w.Header()
	header.Set("Content-Type", ctype)
	header.Set("Content-Length", strconv.FormatInt(d.Size(), 10))
	header.Set("Last-Modified", d.ModTime().UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)

	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, f); err != nil {
		state.logger.Debug("copying file", zap.String("path", name), zap.Error(err))
	}
}
