package handlers

import (
	"bytes"
	"fmt"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"
)

// SPA serves the embedded frontend. Unknown extensionless paths get
// index.html so client-side routes survive a reload; /api paths never do.
func SPA(distFS fs.FS) (http.Handler, error) {
	indexBytes, err := fs.ReadFile(distFS, "index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded index.html: %w", err)
	}
	fileServer := http.FileServer(http.FS(distFS))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cleanPath := path.Clean(r.URL.Path)
		if cleanPath == "." {
			cleanPath = "/"
		}
		if cleanPath == "/api" || strings.HasPrefix(cleanPath, "/api/") {
			writeJSON(w, http.StatusNotFound, &errorResponse{Error: "not found"})
			return
		}
		if cleanPath == "/" || cleanPath == "/index.html" {
			serveIndex(w, r, indexBytes)
			return
		}
		trimmed := strings.TrimPrefix(cleanPath, "/")
		if info, err := fs.Stat(distFS, trimmed); err == nil && !info.IsDir() {
			if strings.HasPrefix(trimmed, "assets/") {
				w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
			}
			fileServer.ServeHTTP(w, r)
			return
		}
		if strings.Contains(path.Base(cleanPath), ".") {
			http.NotFound(w, r)
			return
		}
		serveIndex(w, r, indexBytes)
	}), nil
}

func serveIndex(w http.ResponseWriter, r *http.Request, index []byte) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(index))
}
