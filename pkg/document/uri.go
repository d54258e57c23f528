package document

import (
	"net/url"
	"path/filepath"
	"strings"
)

// NormalizeURI strips the file scheme and decodes percent escapes so that
// "file:///a%20b.ts", "file:/a b.ts" and "/a b.ts" all key the same document.
func NormalizeURI(uri string) string {
	if strings.HasPrefix(uri, "file:") {
		if u, err := url.Parse(uri); err == nil && u.Path != "" {
			return filepath.FromSlash(u.Path)
		}
	}
	uri = strings.TrimPrefix(uri, "file://")
	uri = strings.TrimPrefix(uri, "file:")
	return uri
}

// FileURI builds a file:// URI for an absolute path.
func FileURI(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}
