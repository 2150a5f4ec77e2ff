package metrics_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"stegosuite/pkg/metrics"
)

func TestRegistryInc(t *testing.T) {
	reg := metrics.NewRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Inc(ctx, "decode_requests_total", metrics.Labels{"scheme": "dct", "outcome": "ok"}, 1)
		}()
	}
	wg.Wait()
	reg.Inc(ctx, "decode_requests_total", metrics.Labels{"outcome": "ok", "scheme": "pvd"}, 2)

	require.EqualValues(t, 50, reg.Value("decode_requests_total", metrics.Labels{"outcome": "ok", "scheme": "dct"}))
	require.Equal(t, map[string]int64{
		"decode_requests_total{outcome=ok,scheme=dct}": 50,
		"decode_requests_total{outcome=ok,scheme=pvd}": 2,
	}, reg.Snapshot())
}

func TestRegistryHandlers(t *testing.T) {
	reg := metrics.NewRegistry()
	reg.Inc(context.Background(), "b_total", nil, 3)
	reg.Inc(context.Background(), "a_total", nil, 1)

	e := echo.New()
	rec := httptest.NewRecorder()
	require.NoError(t, reg.HandleText(e.NewContext(httptest.NewRequest(http.MethodGet, "/metrics", nil), rec)))
	require.Equal(t, "a_total 1\nb_total 3\n", rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, reg.HandleJSON(e.NewContext(httptest.NewRequest(http.MethodGet, "/metrics.json", nil), rec)))
	require.JSONEq(t, `{"a_total":1,"b_total":3}`, rec.Body.String())
}
