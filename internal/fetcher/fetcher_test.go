package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetch_SendsBrowserHeaders(t *testing.T) {
	t.Parallel()

	var gotUA, gotLang string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	f := New(Config{
		UserAgent:      "test-browser/1.0",
		AcceptLanguage: "en-US,en;q=0.9,ru;q=0.8",
	}, zap.NewNop())

	body, err := f.Fetch(context.Background(), server.URL, 5*time.Second)
	require.NoError(t, err)
	require.Equal(t, "<html>ok</html>", string(body))
	require.Equal(t, "test-browser/1.0", gotUA)
	require.Equal(t, "en-US,en;q=0.9,ru;q=0.8", gotLang)
}

func TestFetch_NonSuccessStatusIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f := New(Config{UserAgent: "test-agent"}, zap.NewNop())
	_, err := f.Fetch(context.Background(), server.URL, 5*time.Second)
	require.Error(t, err)
}

func TestFetch_TimeoutIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(500 * time.Millisecond)
		_, _ = w.Write([]byte("late"))
	}))
	defer server.Close()

	f := New(Config{UserAgent: "test-agent"}, zap.NewNop())
	_, err := f.Fetch(context.Background(), server.URL, 50*time.Millisecond)
	require.Error(t, err)
}

func TestFetch_SameURLTwice(t *testing.T) {
	t.Parallel()

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	f := New(Config{UserAgent: "test-agent"}, zap.NewNop())
	for i := 0; i < 2; i++ {
		_, err := f.Fetch(context.Background(), server.URL, 5*time.Second)
		require.NoError(t, err)
	}
	require.Equal(t, 2, hits)
}
