package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func setup(t *testing.T, h http.HandlerFunc) (image string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("STEGO_SERVER", srv.URL)
	t.Setenv("STEGO_HISTORY_DB", filepath.Join(dir, "history.db"))
	t.Setenv("LOG_LEVEL", "error")

	image = filepath.Join(dir, "stego.png")
	require.NoError(t, os.WriteFile(image, []byte("\x89PNG"), 0o644))
	return image
}

func TestDecodeJSONAndHistory(t *testing.T) {
	image := setup(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "auto", r.FormValue("scheme"))
		_, _ = io.WriteString(w, `{"message":"secret","scheme":"auto","detected_scheme":"pvd"}`)
	})

	out, err := run(t, "decode", image, "-o", "json")
	require.NoError(t, err)

	var got decodeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "secret", got.Message)
	require.Equal(t, "pvd", got.DetectedScheme)
	require.Equal(t, "stego.png", got.File)

	out, err = run(t, "history", "-n", "5")
	require.NoError(t, err)
	require.Contains(t, out, "stego.png")
	require.Contains(t, out, "auto->pvd")
	require.Contains(t, out, "secret")
}

func TestDecodeYAMLError(t *testing.T) {
	image := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad format"}`)
	})

	out, err := run(t, "decode", image, "-s", "lsbm", "-o", "yaml", "--no-history")
	require.EqualError(t, err, "bad format")

	var got decodeOutput
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Equal(t, "lsbm", got.Scheme)
	require.Equal(t, "bad format", got.Error)
	require.Empty(t, got.Message)
}

func TestDecodeTextRendersForm(t *testing.T) {
	image := setup(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	out, err := run(t, "decode", image, "--no-history")
	require.NoError(t, err)
	require.Contains(t, out, "No hidden message found")
	require.Contains(t, out, "Auto Detect")
}

func TestDecodeRejectsBadFlags(t *testing.T) {
	image := setup(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := run(t, "decode", image, "-s", "rot13")
	require.Error(t, err)
	_, err = run(t, "decode", image, "-o", "xml")
	require.Error(t, err)
}

func TestServerFlagOverridesEnv(t *testing.T) {
	setup(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("env server must not be used")
	})
	other := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	}))
	defer other.Close()

	out, err := run(t, "health", "--server", other.URL)
	require.NoError(t, err)
	require.Contains(t, out, other.URL)
}

func TestDecodeEmptyFileIsValidationError(t *testing.T) {
	image := setup(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	require.NoError(t, os.WriteFile(image, nil, 0o644))

	_, err := run(t, "decode", image)
	require.EqualError(t, err, "Please select a stego image")

	out, err := run(t, "history")
	require.NoError(t, err)
	require.NotContains(t, out, "stego.png")
}
