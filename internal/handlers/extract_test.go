package handlers_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"BizCard/internal/config"
	"BizCard/internal/handlers"
	"BizCard/internal/model"
	"BizCard/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockExtractor struct {
	mock.Mock
	configured bool
}

func (m *mockExtractor) Extract(ctx context.Context, base64Image string) (model.Extraction, error) {
	args := m.Called(ctx, base64Image)
	if v, ok := args.Get(0).(model.Extraction); ok {
		return v, args.Error(1)
	}
	return model.Extraction{}, args.Error(1)
}
func (m *mockExtractor) Configured() bool { return m.configured }
func (m *mockExtractor) Model() string    { return "gemini-test" }

var _ handlers.Extractor = (*mockExtractor)(nil)

func newTestRouter(t *testing.T, configured bool) (http.Handler, *mockExtractor) {
	t.Helper()
	cfg := &config.Config{MaxImageMB: 1}
	ex := &mockExtractor{configured: configured}
	h := handlers.NewHandler(ex, zap.NewNop().Sugar(), cfg)
	return h.Router, ex
}

func postExtract(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var m map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m["error"]
}

func TestExtract_Success(t *testing.T) {
	router, ex := newTestRouter(t, true)
	ex.On("Extract", mock.Anything, "data:image/png;base64,QUJD").
		Return(model.Extraction{Name: "Taro", Company: "ACME", Rotation: 180}, nil).Once()

	rr := postExtract(router, `{"base64Image":"data:image/png;base64,QUJD"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got model.Extraction
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Taro", got.Name)
	assert.Equal(t, 180, got.Rotation)
	ex.AssertExpectations(t)
}

func TestExtract_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"bad base64", fmt.Errorf("%w: illegal data", service.ErrInvalidImage), http.StatusBadRequest},
		{"empty", service.ErrEmptyResponse, http.StatusServiceUnavailable},
		{"unparseable", fmt.Errorf("%w: bad", service.ErrUnparseable), http.StatusBadGateway},
		{"upstream", &service.UpstreamError{Status: 403, Message: "API key not valid"}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, ex := newTestRouter(t, true)
			ex.On("Extract", mock.Anything, "QUJD").Return(nil, tc.err).Once()
			rr := postExtract(router, `{"base64Image":"QUJD"}`)
			assert.Equal(t, tc.status, rr.Code)
			assert.Equal(t, tc.err.Error(), errorOf(t, rr))
		})
	}
}

func TestExtract_RequestValidation(t *testing.T) {
	router, ex := newTestRouter(t, true)

	rr := postExtract(router, `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "base64Image is required.", errorOf(t, rr))

	rr = postExtract(router, `{"base64Image":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// > 1 MB после декодирования
	big := strings.Repeat("A", 2<<20)
	rr = postExtract(router, `{"base64Image":"`+big+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)

	ex.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestExtract_MethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t, true)
	req := httptest.NewRequest(http.MethodGet, "/api/extract", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	assert.Equal(t, "Method not allowed", errorOf(t, rr))
}

func TestExtract_NotConfigured(t *testing.T) {
	router, ex := newTestRouter(t, false)
	rr := postExtract(router, `{"base64Image":"QUJD"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, errorOf(t, rr), "GEMINI_API_KEY")
	ex.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestExtract_GzipRoundTrip(t *testing.T) {
	router, ex := newTestRouter(t, true)
	ex.On("Extract", mock.Anything, "QUJD").Return(model.Extraction{Name: "Gz"}, nil).Once()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(`{"base64Image":"QUJD"}`))
	_ = zw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/extract", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "gzip", rr.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rr.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"name":"Gz"`)
}

func TestHealth(t *testing.T) {
	for _, tc := range []struct {
		configured bool
		want       string
	}{{true, "ok"}, {false, "no-api-key"}} {
		router, _ := newTestRouter(t, tc.configured)
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"status":"`+tc.want+`","model":"gemini-test"}`, rr.Body.String())
	}
}
