package ui

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var content embed.FS

// GetHandler serves the landing page and its static assets.
func GetHandler() http.Handler {
	fsys, err := fs.Sub(content, "static")
	if err != nil {
		panic(err) // embed paths are fixed at build time
	}
	return http.FileServer(http.FS(fsys))
}
