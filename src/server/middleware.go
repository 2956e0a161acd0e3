package server

import (
	"net/http"
	"time"

	logger "github.com/sirupsen/logrus"
)

// RequestLogger logs every inbound request. The body is deliberately not
// logged: webhook payloads carry the shared secret.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logger.WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
			"remote": r.RemoteAddr,
			"length": r.ContentLength,
		}).Info("incoming request")

		next.ServeHTTP(w, r)

		logger.WithFields(map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request completed")
	})
}
