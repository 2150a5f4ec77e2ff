package api

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
)

//go:embed web/index.html
var indexHTML []byte

// Index serves the browser decode page.
func (h *Handlers) Index(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, indexHTML)
}
