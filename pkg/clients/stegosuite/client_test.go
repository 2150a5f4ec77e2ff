package stegosuite_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stegosuite/pkg/clients/stegosuite"
	"stegosuite/pkg/stego"
)

func newClient(t *testing.T, h http.HandlerFunc) *stegosuite.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := stegosuite.NewClient(srv.URL, stegosuite.Options{Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestDecodeSendsMultipart(t *testing.T) {
	image := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, stegosuite.DecodePath, r.URL.Path)

		f, fh, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		got, _ := io.ReadAll(f)
		require.Equal(t, image, got)
		require.Equal(t, "cat.png", fh.Filename)
		require.Equal(t, "auto", r.FormValue("scheme"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"secret","scheme":"auto","detected_scheme":"dct"}`))
	})

	resp, err := c.Decode(context.Background(), stegosuite.DecodeRequest{ImageName: "cat.png", Image: image, Scheme: stego.SchemeAuto})
	require.NoError(t, err)
	require.Equal(t, "secret", resp.Message)
	require.Equal(t, "dct", resp.DetectedScheme)
}

func TestDecodeDefaultsToAuto(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "auto", r.FormValue("scheme"))
		_, _ = w.Write([]byte(`{"message":""}`))
	})
	resp, err := c.Decode(context.Background(), stegosuite.DecodeRequest{Image: []byte{1}})
	require.NoError(t, err)
	require.Empty(t, resp.Message)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"server error text", http.StatusBadRequest, `{"error":"bad format"}`, "bad format"},
		{"empty body", http.StatusInternalServerError, ``, ""},
		{"html body", http.StatusBadGateway, `<html>bad gateway</html>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Decode(context.Background(), stegosuite.DecodeRequest{Image: []byte{1}, Scheme: stego.SchemeDCT})

			var apiErr *stegosuite.APIError
			require.True(t, errors.As(err, &apiErr))
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.message, apiErr.Message)
		})
	}
}

func TestDecodeWithoutImageMakesNoCall(t *testing.T) {
	called := false
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.Decode(context.Background(), stegosuite.DecodeRequest{Scheme: stego.SchemeLSBM})
	require.ErrorIs(t, err, stegosuite.ErrNoImage)
	require.False(t, called)
}

func TestDecodeHonoursContext(t *testing.T) {
	release := make(chan struct{})
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Decode(ctx, stegosuite.DecodeRequest{Image: []byte{1}})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEncode(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, stegosuite.EncodePath, r.URL.Path)
		require.Equal(t, "pvd", r.FormValue("scheme"))
		require.Equal(t, "hello", r.FormValue("message"))
		w.Header().Set("X-Image-ID", "abc")
		w.Header().Set("X-Metrics", `{"psnr":51.2,"ssim":0.99,"ber":0.001}`)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	})

	res, err := c.Encode(context.Background(), stegosuite.EncodeRequest{Image: []byte{1}, Scheme: stego.SchemePVD, Message: "hello"})
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), res.PNG)
	require.Equal(t, "abc", res.ImageID)
	require.NotNil(t, res.Metrics)
	require.InDelta(t, 51.2, res.Metrics.PSNR, 1e-9)
}

func TestHealth(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, stegosuite.HealthPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})
	require.NoError(t, c.Health(context.Background()))
}

func TestNewClientValidatesURL(t *testing.T) {
	_, err := stegosuite.NewClient("", stegosuite.Options{})
	require.Error(t, err)
	_, err = stegosuite.NewClient("ftp://host", stegosuite.Options{})
	require.Error(t, err)
}
