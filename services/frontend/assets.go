package frontend

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/styles.css static/rsvp.js
var staticAssets embed.FS

// StaticHandler serves the embedded stylesheet and RSVP script. Mount it with
// the /static/ prefix stripped.
func StaticHandler() http.Handler {
	subFS, err := fs.Sub(staticAssets, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(subFS))
}
