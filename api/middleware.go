package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestLogger writes one structured line per request with method, path,
// status and latency, tagged with a request id.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.New().String()
		c.Next()
		log.WithFields(logrus.Fields{
			"id":      requestID,
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Info("handled request")
	}
}

// authExempt paths are reachable without a token: health probes, the root
// page and the API documentation subtree.
func authExempt(path string) bool {
	return path == "/" || path == "/health" ||
		path == "/swagger" || strings.HasPrefix(path, "/swagger/")
}

// TokenAuth enforces `Authorization: Bearer <token>` exactly. A missing or
// malformed header yields 401, a wrong token 403. OPTIONS requests pass
// through so CORS preflights work without credentials.
func TokenAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || authExempt(c.Request.URL.Path) {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{Message: "missing Authorization header"})
			return
		}
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, GenericResponse{Message: "Authorization header must use the Bearer scheme"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusForbidden, GenericResponse{Message: "invalid token"})
			return
		}
		c.Next()
	}
}

// CORS answers every response with a wildcard origin and short-circuits
// preflight requests.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		if c.Request.Method == http.MethodOptions {
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// DefaultContentType makes JSON the default; renderers that know better
// (the swagger UI) override it.
func DefaultContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Writer.Header().Get("Content-Type") == "" {
			c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		}
		c.Next()
	}
}
