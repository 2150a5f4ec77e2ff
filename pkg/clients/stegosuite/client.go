package stegosuite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stegosuite/pkg/models"
	"stegosuite/pkg/quality"
	"stegosuite/pkg/stego"
)

const (
	DecodePath = "/api/decode"
	EncodePath = "/api/encode"
	HealthPath = "/health"

	// DefaultURL is where a locally started server listens.
	DefaultURL = "http://localhost:5000"

	// bodies larger than this are not worth reading for an error text
	maxErrorBody = 64 << 10
)

// ErrNoImage is returned when a request carries no image bytes.
var ErrNoImage = errors.New("no image selected")

// APIError is a non-2xx answer from the service.
type APIError struct {
	StatusCode int
	// Message is the server supplied "error" field, possibly empty.
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the StegoSuite decode/encode service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Options controls optional parameters for NewClient.
type Options struct {
	// Timeout bounds every request. Zero leaves requests unbounded.
	Timeout time.Duration
	// HTTPClient overrides the transport; Timeout is ignored when set.
	HTTPClient *http.Client
}

// NewClient constructs a client for the service at baseURL
// (e.g. http://localhost:5000).
func NewClient(baseURL string, opts Options) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("empty base URL")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}, nil
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DecodeRequest is one decode attempt.
type DecodeRequest struct {
	ImageName string
	Image     []byte
	Scheme    stego.Scheme
}

// Decode sends the image and scheme as multipart form fields "image" and
// "scheme" and returns the parsed success body.
func (c *Client) Decode(ctx context.Context, req DecodeRequest) (*models.DecodeResponse, error) {
	if len(req.Image) == 0 {
		return nil, ErrNoImage
	}
	scheme := req.Scheme
	if scheme == "" {
		scheme = stego.SchemeAuto
	}

	resp, err := c.postForm(ctx, DecodePath, req.ImageName, req.Image, map[string]string{
		"scheme": string(scheme),
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out models.DecodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

// EncodeRequest hides Message in Image.
type EncodeRequest struct {
	ImageName string
	Image     []byte
	Scheme    stego.Scheme
	Message   string
}

// EncodeResult is the stego PNG with what the server reported about it.
type EncodeResult struct {
	PNG     []byte
	ImageID string
	// Metrics is nil when the server could not compute them.
	Metrics *quality.Metrics
}

// Encode asks the server to embed a message and returns the stego PNG.
func (c *Client) Encode(ctx context.Context, req EncodeRequest) (*EncodeResult, error) {
	if len(req.Image) == 0 {
		return nil, ErrNoImage
	}
	resp, err := c.postForm(ctx, EncodePath, req.ImageName, req.Image, map[string]string{
		"scheme":  string(req.Scheme),
		"message": req.Message,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	png, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read stego image: %w", err)
	}
	out := &EncodeResult{PNG: png, ImageID: resp.Header.Get("X-Image-ID")}
	if raw := resp.Header.Get("X-Metrics"); raw != "" {
		var m quality.Metrics
		if err := json.Unmarshal([]byte(raw), &m); err == nil {
			out.Metrics = &m
		}
	}
	return out, nil
}

// Health checks that the service answers.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *Client) postForm(ctx context.Context, path, name string, image []byte, fields map[string]string) (*http.Response, error) {
	if name == "" {
		name = "image.png"
	}
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", name)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(image); err != nil {
		return nil, err
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	return c.do(req)
}

// do executes req and turns non-2xx answers into *APIError.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var body models.ErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body); err == nil {
		apiErr.Message = body.Error
	}
	return nil, apiErr
}
