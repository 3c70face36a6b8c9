package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"guardian/internal/analyzer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyze_RequestContract(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	var gotHeaders http.Header
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/analyze", r.URL.Path)
		gotHeaders = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(`{"plagiarism_score":0.42,"fake_news_score":0.87,"verdict":"Likely original"}`))
	})

	c := New(Config{BaseURL: srv.URL + "/"})
	ctx := analyzer.WithAttemptID(context.Background(), "attempt-1")
	res, err := c.Analyze(ctx, "  exact text\n")
	require.NoError(t, err)

	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "attempt-1", gotHeaders.Get("X-Request-ID"))
	assert.Equal(t, map[string]any{"text": "  exact text\n"}, gotBody)

	assert.Equal(t, 0.42, res.PlagiarismScore)
	assert.Equal(t, 0.87, res.FakeNewsScore)
	assert.Equal(t, "Likely original", res.Verdict)
	assert.Nil(t, res.CheckedAt)
}

func TestAnalyze_AcceptsAny2xx(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"plagiarism_score":0,"fake_news_score":1,"verdict":""}`))
	})

	res, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.PlagiarismScore)
	assert.Equal(t, 1.0, res.FakeNewsScore)
	assert.Equal(t, "", res.Verdict)
}

func TestAnalyze_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		code := code
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			// A valid-looking body must not rescue a failing status.
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"plagiarism_score":0.1,"fake_news_score":0.1,"verdict":"x"}`))
		})

		_, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "x")
		var statusErr *analyzer.StatusError
		require.True(t, errors.As(err, &statusErr), "status %d: got %v", code, err)
		assert.Equal(t, code, statusErr.Code)
	}
}

func TestAnalyze_MalformedBodies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"not json", `<html>oops</html>`, ""},
		{"array", `[1,2,3]`, ""},
		{"missing plagiarism", `{"fake_news_score":0.1,"verdict":"x"}`, "plagiarism_score"},
		{"missing fake news", `{"plagiarism_score":0.1,"verdict":"x"}`, "fake_news_score"},
		{"missing verdict", `{"plagiarism_score":0.1,"fake_news_score":0.1}`, "verdict"},
		{"null verdict", `{"plagiarism_score":0.1,"fake_news_score":0.1,"verdict":null}`, "verdict"},
		{"string score", `{"plagiarism_score":"0.1","fake_news_score":0.1,"verdict":"x"}`, "plagiarism_score"},
		{"numeric verdict", `{"plagiarism_score":0.1,"fake_news_score":0.1,"verdict":3}`, "verdict"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "x")
			var malformed *analyzer.MalformedError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, http.StatusOK, malformed.Code)
			assert.Equal(t, tt.field, malformed.Field)
		})
	}
}

func TestAnalyze_TransportFailure(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: url}).Analyze(context.Background(), "x")
	var transportErr *analyzer.TransportError
	require.True(t, errors.As(err, &transportErr), "got %v", err)
}

func TestAnalyze_OutOfRangeScoresPassThrough(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plagiarism_score":1.5,"fake_news_score":-0.2,"verdict":"odd"}`))
	})

	res, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, 1.5, res.PlagiarismScore)
	assert.Equal(t, -0.2, res.FakeNewsScore)
}

func TestAnalyze_NoRetries(t *testing.T) {
	t.Parallel()
	var hits int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := New(Config{BaseURL: srv.URL}).Analyze(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestAnalyze_RateLimitHonoursContext(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"plagiarism_score":0.1,"fake_news_score":0.1,"verdict":"x"}`))
	})

	c := New(Config{BaseURL: srv.URL, RateLimit: 0.001})
	_, err := c.Analyze(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Analyze(ctx, "second")
	var transportErr *analyzer.TransportError
	require.True(t, errors.As(err, &transportErr), "got %v", err)
}

func TestResolveBaseURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultBaseURL, ResolveBaseURL(""))
	assert.Equal(t, DefaultBaseURL, ResolveBaseURL("   "))
	assert.Equal(t, "https://api.example.com", ResolveBaseURL("https://api.example.com/"))
	assert.Equal(t, "https://api.example.com/v1", ResolveBaseURL("https://api.example.com/v1//"))

	assert.Equal(t, "http://localhost:8000/analyze", New(Config{}).Endpoint())
}
