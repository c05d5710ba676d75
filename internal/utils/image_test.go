package utils

import (
	"context"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestLoadImage(t *testing.T) {
	ctx := context.Background()

	t.Run("data URI", func(t *testing.T) {
		img, err := LoadImage(ctx, " data:image/png;base64,cG5n ")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MIMEType)
		assert.Equal(t, []byte("png"), img.Data)
	})

	t.Run("http URL", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png; charset=binary")
			_, _ = w.Write(pngSignature)
		}))
		defer srv.Close()

		img, err := LoadImage(ctx, srv.URL+"/cat.png")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.MIMEType)
		assert.Equal(t, pngSignature, img.Data)
	})

	t.Run("unsupported reference", func(t *testing.T) {
		_, err := LoadImage(ctx, "/tmp/cat.png")
		assert.Error(t, err)
	})
}

func TestDownloadImageFromURL(t *testing.T) {
	ctx := context.Background()

	t.Run("sniffs content when header is not an image", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(pngSignature)
		}))
		defer srv.Close()

		_, mimeType, err := DownloadImageFromURL(ctx, srv.URL+"/file")
		require.NoError(t, err)
		assert.Equal(t, "image/png", mimeType)
	})

	t.Run("non-200 is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, _, err := DownloadImageFromURL(ctx, srv.URL)
		assert.Error(t, err)
	})
}

func TestInferMimeTypeFromURL(t *testing.T) {
	assert.Equal(t, "image/png", InferMimeTypeFromURL("https://x/a.PNG"))
	assert.Equal(t, "image/webp", InferMimeTypeFromURL("https://x/a.webp?sig=1"))
	assert.Equal(t, "image/gif", InferMimeTypeFromURL("https://x/a.gif"))
	assert.Equal(t, "image/jpeg", InferMimeTypeFromURL("https://x/a"))
}

func TestGenerateObjectKey(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	key := GenerateObjectKey("image/png", now)

	pattern := regexp.MustCompile(`^images/2026-03-14/[0-9a-f-]{36}_\d+\.png$`)
	assert.Regexp(t, pattern, key)
	assert.NotEqual(t, key, GenerateObjectKey("image/png", now))
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "short", TruncateForLog("short", 10))
	assert.Equal(t, "abcd...", TruncateForLog("abcdefghij", 7))
	assert.Equal(t, "ab", TruncateForLog("abcdefghij", 2))
}
