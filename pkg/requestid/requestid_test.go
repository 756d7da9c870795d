package requestid_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/pkg/logger"
	"github.com/dmitrymomot/billingkit/pkg/requestid"
)

func TestContext(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		ctx := requestid.WithContext(context.Background(), "req-1")
		assert.Equal(t, "req-1", requestid.FromContext(ctx))
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, requestid.FromContext(context.Background()))
		assert.Empty(t, requestid.FromContext(nil)) //nolint:staticcheck
	})

	t.Run("ensure keeps valid id", func(t *testing.T) {
		t.Parallel()
		ctx := requestid.WithContext(context.Background(), "req_abc-1")
		got, id := requestid.Ensure(ctx)
		assert.Equal(t, "req_abc-1", id)
		assert.Equal(t, ctx, got)
	})

	t.Run("ensure replaces invalid id", func(t *testing.T) {
		t.Parallel()
		ctx := requestid.WithContext(context.Background(), "bad id\n")
		got, id := requestid.Ensure(ctx)
		assert.NotEqual(t, "bad id\n", id)
		assert.Equal(t, id, requestid.FromContext(got))
	})

	t.Run("new ids are unique", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, requestid.New(), requestid.New())
	})
}

func TestTransport(t *testing.T) {
	t.Parallel()

	echo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get(requestid.Header)))
	}))
	t.Cleanup(echo.Close)

	client := &http.Client{Transport: requestid.NewTransport(nil)}

	send := func(t *testing.T, ctx context.Context, header string) string {
		t.Helper()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, echo.URL, nil)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set(requestid.Header, header)
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, err = buf.ReadFrom(resp.Body)
		require.NoError(t, err)
		return buf.String()
	}

	t.Run("uses id from context", func(t *testing.T) {
		t.Parallel()
		ctx := requestid.WithContext(context.Background(), "ctx-id")
		assert.Equal(t, "ctx-id", send(t, ctx, ""))
	})

	t.Run("generates id when absent", func(t *testing.T) {
		t.Parallel()
		assert.NotEmpty(t, send(t, context.Background(), ""))
	})

	t.Run("keeps explicit header", func(t *testing.T) {
		t.Parallel()
		ctx := requestid.WithContext(context.Background(), "ctx-id")
		assert.Equal(t, "explicit-id", send(t, ctx, "explicit-id"))
	})

	t.Run("does not modify caller request", func(t *testing.T) {
		t.Parallel()
		req, err := http.NewRequest(http.MethodGet, echo.URL, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Empty(t, req.Header.Get(requestid.Header))
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithJSONFormatter(),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	ctx := requestid.WithContext(context.Background(), "req-42")
	log.InfoContext(ctx, "fetching prices")
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)

	buf.Reset()
	log.Log(context.Background(), slog.LevelInfo, "no id")
	assert.NotContains(t, buf.String(), "request_id")
}
