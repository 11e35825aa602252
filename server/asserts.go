package main

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Assets holds the embedded dialog page served under /app.
//
//go:embed public/*
var Assets embed.FS

// Dir serves a subtree of Assets, falling back to index.html for client-side
// routed paths.
type Dir string

func (d Dir) Open(name string) (fs.File, error) {
	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		return nil, errors.New("http: invalid character in file path")
	}

	dir := string(d)
	if dir == "" {
		dir = "."
	}

	fullName := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+name)))

	f, err := Assets.Open(fullName)
	if os.IsNotExist(err) {
		// Unknown paths get the dialog page, so client side routes
		// resolve after a reload.
		f, err = Assets.Open(filepath.Join(dir, "index.html"))
		if err != nil {
			return nil, err
		}
	}

	return f, err
}
