package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// cachedBody is the gob-encoded payload stored in Redis for a cached response.
type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// sha1Hex hashes path+query so Redis keys stay short.
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// cacheKey returns the Redis key for cacheable requests. Only the public event
// reads are cached: GET /events (list) and GET /events/{id} (item). Keys are
// namespaced by kind so mutations can purge them with a prefix scan.
func cacheKey(r *http.Request) string {
	if r.Method != http.MethodGet {
		return ""
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	if path == "/events" {
		return "cache:events:list:" + sha1Hex("GET|/events|"+r.URL.RawQuery)
	}
	if rest, ok := strings.CutPrefix(path, "/events/"); ok && rest != "" && !strings.Contains(rest, "/") {
		return "cache:events:item:" + sha1Hex("GET|/events/"+rest)
	}
	return ""
}

// ResponseCache caches public event reads in Redis for ttl and replays them
// with an X-Cache header (HIT or MISS). Successful mutations under /events
// purge the whole event cache namespace. Redis being down degrades to
// pass-through; it never fails a request.
func ResponseCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && strings.HasPrefix(r.URL.Path, "/events") {
			wrapped := &bufferingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			if wrapped.status >= 200 && wrapped.status < 300 {
				purgeEventCache(r.Context(), rdb, logger)
			}
			return
		}

		key := cacheKey(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		if b, err := rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					for _, v := range vals {
						w.Header().Add(k, v)
					}
				}
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(hit.Status)
				_, _ = w.Write(hit.Body)
				return
			}
		}

		buf := &bytes.Buffer{}
		wrapped := &bufferingWriter{ResponseWriter: w, status: http.StatusOK, buf: buf}
		wrapped.Header().Set("X-Cache", "MISS")
		next.ServeHTTP(wrapped, r)

		if wrapped.status >= 200 && wrapped.status < 300 {
			item := cachedBody{
				Status: wrapped.status,
				Header: cloneCacheableHeader(wrapped.Header()),
				Body:   buf.Bytes(),
			}
			var encoded bytes.Buffer
			if err := gob.NewEncoder(&encoded).Encode(item); err == nil {
				if err := rdb.Set(ctx, key, encoded.Bytes(), ttl).Err(); err != nil {
					logger.Debug("response cache store failed", "key", key, "err", err)
				}
			}
		}
	})
}

// purgeEventCache deletes every cached event read. Item keys embed a hash of
// the ID, so a targeted delete is not possible; the namespace is small enough
// that a prefix scan is fine.
func purgeEventCache(ctx context.Context, rdb *redis.Client, logger *slog.Logger) {
	iter := rdb.Scan(ctx, 0, "cache:events:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := rdb.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Debug("response cache purge failed", "key", iter.Val(), "err", err)
		}
	}
}

func cloneCacheableHeader(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		if k == "X-Cache" {
			continue
		}
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// bufferingWriter captures status and optionally a copy of the body.
type bufferingWriter struct {
	http.ResponseWriter
	status int
	buf    *bytes.Buffer
}

func (w *bufferingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bufferingWriter) Write(b []byte) (int, error) {
	if w.buf != nil {
		w.buf.Write(b)
	}
	return w.ResponseWriter.Write(b)
}
