// Package web serves the embedded single-page issuance form.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed dist/*
var content embed.FS

// Handler returns an http.Handler that serves the embedded web assets.
func Handler() (http.Handler, error) {
	fsys, err := fs.Sub(content, "dist")
	if err != nil {
		return nil, err
	}
	return http.FileServer(http.FS(fsys)), nil
}
