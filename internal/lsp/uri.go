package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
)

// uriToPath converts a file:// URI to a local path. Anything else is
// returned unchanged.
func uriToPath(uri string) string {
	if !strings.HasPrefix(uri, "file://") {
		return uri
	}
	path := strings.TrimPrefix(uri, "file://")
	if unescaped, err := url.PathUnescape(path); err == nil {
		path = unescaped
	}
	// Windows drive letters arrive as /C:/...
	if len(path) > 2 && path[0] == '/' && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path)
}

// pathToURI converts a local path to a file:// URI.
func pathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") && len(path) > 1 && path[1] == ':' {
		path = "/" + path
	}
	u := url.URL{Scheme: "file", Path: path}
	return u.String()
}
