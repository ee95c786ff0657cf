package rest

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
)

// staticSite serves an exported web bundle. A request resolves to the file
// itself, then name.html, then name/index.html, and finally the root
// index.html so client-side routes still load the app.
type staticSite struct {
	dir string
}

func newStaticSite(dir string) *staticSite {
	return &staticSite{dir: dir}
}

func (s *staticSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	candidates := []string{name, name + ".html", path.Join(name, "index.html"), "/index.html"}
	for _, c := range candidates {
		file := filepath.Join(s.dir, filepath.FromSlash(c))
		if info, err := os.Stat(file); err == nil && info.Mode().IsRegular() {
			http.ServeFile(w, r, file)
			return
		}
	}
	http.NotFound(w, r)
}
