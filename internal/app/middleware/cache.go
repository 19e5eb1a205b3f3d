package middleware

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"

	"actrec-directory/internal/domain/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type cachedResponse struct {
	ContentType string `json:"content_type"`
	Disposition string `json:"disposition,omitempty"`
	Body        []byte `json:"body"`
}

// responseWriter captures the body while writing it through
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// CacheKey hashes the path and the sorted query string
func CacheKey(c *gin.Context) string {
	query := c.Request.URL.Query()
	keys := make([]string, 0, len(query))
	for key := range query {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(c.Request.URL.Path)
	b.WriteString("?")
	for _, key := range keys {
		values := query[key]
		sort.Strings(values)
		for _, value := range values {
			b.WriteString(key + "=" + value + "&")
		}
	}

	sum := md5.Sum([]byte(b.String()))
	return "http:" + hex.EncodeToString(sum[:])
}

// Cache serves successful GET responses from the directory cache. Entries
// disappear when a mutation invalidates the cache.
func Cache(cache services.InterfaceDirectoryCache, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := CacheKey(c)
		ctx := c.Request.Context()

		version, err := cache.Version(ctx)
		if err != nil {
			logger.Warn("response cache version read failed", zap.Error(err))
			c.Next()
			return
		}

		var entry cachedResponse
		hit, err := cache.Get(ctx, version, key, &entry)
		if err != nil {
			logger.Warn("response cache read failed", zap.Error(err))
		}
		if hit {
			if entry.Disposition != "" {
				c.Header("Content-Disposition", entry.Disposition)
			}
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, entry.ContentType, entry.Body)
			c.Abort()
			return
		}

		writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = writer
		c.Next()

		if writer.Status() != http.StatusOK || version == "" {
			return
		}
		entry = cachedResponse{
			ContentType: writer.Header().Get("Content-Type"),
			Disposition: writer.Header().Get("Content-Disposition"),
			Body:        writer.body.Bytes(),
		}
		if err := cache.Set(ctx, version, key, entry); err != nil {
			logger.Warn("response cache write failed", zap.Error(err))
		}
	}
}
