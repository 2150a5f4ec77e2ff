package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"stegosuite/pkg/metrics"
	"stegosuite/pkg/models"
	"stegosuite/pkg/quality"
	imagerepo "stegosuite/pkg/repository/image"
	"stegosuite/pkg/stego"
)

const (
	HeaderMetrics = "X-Metrics"
	HeaderImageID = "X-Image-ID"

	fieldImage   = "image"
	fieldScheme  = "scheme"
	fieldMessage = "message"
)

// Options tune request handling.
type Options struct {
	// Timeout bounds a single decode or encode.
	Timeout time.Duration
	// ImageTTL is how long encoded images stay downloadable.
	ImageTTL time.Duration
}

// Handlers serves the decode/encode API.
type Handlers struct {
	images imagerepo.Repository
	reg    *metrics.Registry
	opts   Options
}

// NewHandlers constructs Handlers. reg may be nil.
func NewHandlers(images imagerepo.Repository, reg *metrics.Registry, opts Options) *Handlers {
	return &Handlers{images: images, reg: reg, opts: opts}
}

// Register mounts every route on e.
func (h *Handlers) Register(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/health", h.Health)
	e.POST("/api/decode", h.Decode)
	e.POST("/api/encode", h.Encode)
	e.GET("/api/images/:id", h.Image)
	e.DELETE("/api/images/:id", h.DeleteImage)
}

// Health handles GET /health
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{Status: "healthy"})
}

func (h *Handlers) count(ctx context.Context, name string, scheme stego.Scheme, outcome string) {
	if h.reg != nil {
		h.reg.Inc(ctx, name, metrics.Labels{"scheme": string(scheme), "outcome": outcome}, 1)
	}
}

func (h *Handlers) withTimeout(c echo.Context) (context.Context, context.CancelFunc) {
	if h.opts.Timeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), h.opts.Timeout)
}

// readUpload returns the bytes of the multipart file field.
func readUpload(c echo.Context) ([]byte, error) {
	fh, err := c.FormFile(fieldImage)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Decode handles POST /api/decode
func (h *Handlers) Decode(c echo.Context) error {
	logger := log.Ctx(c.Request().Context())

	schemeValue := c.FormValue(fieldScheme)
	data, err := readUpload(c)
	if err != nil || schemeValue == "" || len(data) == 0 {
		return errorJSON(c, http.StatusBadRequest, "Missing required fields")
	}
	scheme, err := stego.ParseScheme(schemeValue)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid decoding scheme")
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()

	start := time.Now()
	res, err := stego.Decode(ctx, data, scheme)
	switch {
	case errors.Is(err, stego.ErrNoMessage):
		logger.Info().Str("scheme", string(scheme)).Msg("no hidden message found")
		h.count(ctx, "decode_requests_total", scheme, "empty")
	case err != nil:
		h.count(ctx, "decode_requests_total", scheme, "error")
		return h.fail(c, err)
	default:
		logger.Info().
			Str("scheme", string(scheme)).
			Str("detected", string(res.Detected)).
			Int("message_bytes", len(res.Message)).
			Dur("elapsed", time.Since(start)).
			Msg("message decoded")
		h.count(ctx, "decode_requests_total", scheme, "ok")
	}

	return c.JSON(http.StatusOK, models.DecodeResponse{
		Message:        res.Message,
		Scheme:         string(scheme),
		DetectedScheme: string(res.Detected),
	})
}

// Encode handles POST /api/encode
func (h *Handlers) Encode(c echo.Context) error {
	logger := log.Ctx(c.Request().Context())

	schemeValue := c.FormValue(fieldScheme)
	message := c.FormValue(fieldMessage)
	data, err := readUpload(c)
	if err != nil || schemeValue == "" || message == "" || len(data) == 0 {
		return errorJSON(c, http.StatusBadRequest, "Missing required fields")
	}
	scheme, err := stego.ParseScheme(schemeValue)
	if err != nil || scheme == stego.SchemeAuto {
		return errorJSON(c, http.StatusBadRequest, "Invalid encoding scheme")
	}

	ctx, cancel := h.withTimeout(c)
	defer cancel()

	out, err := stego.Encode(ctx, data, scheme, message)
	if err != nil {
		h.count(ctx, "encode_requests_total", scheme, "error")
		return h.fail(c, err)
	}
	h.count(ctx, "encode_requests_total", scheme, "ok")

	header := c.Response().Header()
	if m, err := quality.CompareBytes(data, out); err != nil {
		logger.Warn().Err(err).Msg("metrics calculation failed")
	} else if raw, err := json.Marshal(m); err == nil {
		header.Set(HeaderMetrics, string(raw))
	}

	if h.images != nil {
		id, err := h.images.Save(ctx, out, string(scheme), h.opts.ImageTTL)
		if err != nil {
			logger.Warn().Err(err).Msg("stego image not stored")
		} else {
			header.Set(HeaderImageID, id)
		}
	}

	return attachment(c, out)
}

// Image handles GET /api/images/:id
func (h *Handlers) Image(c echo.Context) error {
	if h.images == nil {
		return errorJSON(c, http.StatusNotFound, "Image not found")
	}
	img, ok := h.images.Get(c.Request().Context(), c.Param("id"))
	if !ok {
		return errorJSON(c, http.StatusNotFound, "Image not found")
	}
	c.Response().Header().Set(HeaderImageID, img.ID)
	return attachment(c, img.Data)
}

// DeleteImage handles DELETE /api/images/:id
func (h *Handlers) DeleteImage(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if h.images == nil {
		return errorJSON(c, http.StatusNotFound, "Image not found")
	}
	if _, ok := h.images.Get(ctx, id); !ok {
		return errorJSON(c, http.StatusNotFound, "Image not found")
	}
	if err := h.images.Delete(ctx, id); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func attachment(c echo.Context, png []byte) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="stego.png"`)
	return c.Blob(http.StatusOK, "image/png", png)
}

func errorJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, models.ErrorResponse{Error: msg})
}

// fail maps stego errors to a status and body.
func (h *Handlers) fail(c echo.Context, err error) error {
	status, msg := statusFor(err)
	ev := log.Ctx(c.Request().Context()).Warn()
	if status >= http.StatusInternalServerError {
		ev = log.Ctx(c.Request().Context()).Error()
	}
	ev.Err(err).Int("status", status).Msg("stego request failed")
	return errorJSON(c, status, msg)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, stego.ErrInvalidImage),
		errors.Is(err, stego.ErrCapacity),
		errors.Is(err, stego.ErrImageTooSmall):
		return http.StatusBadRequest, fmt.Sprintf("Input Error: %v", err)
	case errors.Is(err, stego.ErrUnsupportedScheme):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, stego.ErrNoMetadata):
		return http.StatusUnprocessableEntity, "AutoDecode Error: Image does not contain required metadata for auto-detection."
	case errors.Is(err, stego.ErrUnknownCodeword):
		var cwErr *stego.CodewordError
		if errors.As(err, &cwErr) {
			return http.StatusUnprocessableEntity,
				fmt.Sprintf("AutoDecode Error: Unsupported encoding scheme indicated by metadata ('%s').", cwErr.Codeword)
		}
		return http.StatusUnprocessableEntity, "AutoDecode Error: Unsupported encoding scheme indicated by metadata."
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Processing timed out"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
