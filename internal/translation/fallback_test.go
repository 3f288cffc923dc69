package translation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestFallbackClientTranslate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get", r.URL.Path)
		assert.Equal(t, "Benvenuti", r.URL.Query().Get("q"))
		assert.Equal(t, "it|en", r.URL.Query().Get("langpair"))
		w.Write([]byte(`{"responseData":{"translatedText":"Welcome"},"responseStatus":200}`))
	}))
	defer server.Close()

	client := NewFallbackClient(server.URL, testLogger())
	got, err := client.Translate(context.Background(), "Benvenuti", "it", "en")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", got)
}

func TestFallbackClientAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewFallbackClient(server.URL, testLogger())
	_, err := client.Translate(context.Background(), "Benvenuti", "it", "en")
	assert.Error(t, err)
}

func TestFallbackClientBodyLevelError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"responseData":{"translatedText":""},"responseStatus":403}`))
	}))
	defer server.Close()

	client := NewFallbackClient(server.URL, testLogger())
	_, err := client.Translate(context.Background(), "Benvenuti", "it", "en")
	assert.Error(t, err)
}

func TestFallbackClientMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer server.Close()

	client := NewFallbackClient(server.URL, testLogger())
	_, err := client.Translate(context.Background(), "Benvenuti", "it", "en")
	assert.Error(t, err)
}
