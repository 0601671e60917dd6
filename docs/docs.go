// Package docs embeds the OpenAPI description served next to the Swagger UI.
package docs

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var OpenAPI []byte

// Handler serves the embedded OpenAPI document.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(OpenAPI)
	})
}
