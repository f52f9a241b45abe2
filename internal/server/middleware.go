package server

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"todoapp/internal/auth"
	"todoapp/internal/domain/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	claimsKey       = "claims"
)

// Recovery turns a panic in a handler into a logged 500.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("паника при обработке запроса",
					zap.Any("panic", r),
					zap.String("path", ctx.Request.URL.Path),
					zap.String("request_id", ctx.GetString(requestIDKey)),
					zap.ByteString("stack", debug.Stack()),
				)
				ctx.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		ctx.Next()
	}
}

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		requestID := ctx.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx.Set(requestIDKey, requestID)
		ctx.Header(requestIDHeader, requestID)

		ctx.Next()

		fields := []zap.Field{
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("status", ctx.Writer.Status()),
			zap.String("request_id", requestID),
			zap.Duration("duration", time.Since(start)),
		}
		if len(ctx.Errors) > 0 {
			logger.Error("запрос завершился с ошибкой", append(fields, zap.String("errors", ctx.Errors.String()))...)
			return
		}
		logger.Info("запрос обработан", fields...)
	}
}

// RequireAuth lets through requests carrying a valid session cookie and sends
// everyone else to the login page.
func RequireAuth(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(auth.CookieName)
		if err == nil && token != "" {
			if claims, err := tokens.Validate(token); err == nil {
				ctx.Set(claimsKey, claims)
				ctx.Next()
				return
			}
		}
		ctx.Redirect(http.StatusFound, "/auth/login")
		ctx.Abort()
	}
}

func currentUser(ctx *gin.Context) *auth.Claims {
	v, ok := ctx.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}

type gzipBody struct {
	io.Reader
	zr   *gzip.Reader
	body io.ReadCloser
}

func (b *gzipBody) Close() error {
	zerr := b.zr.Close()
	if err := b.body.Close(); err != nil {
		return err
	}
	return zerr
}

// GzipRequestDecompress inflates request bodies sent with Content-Encoding: gzip.
func GzipRequestDecompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !strings.Contains(strings.ToLower(ctx.GetHeader("Content-Encoding")), "gzip") {
			ctx.Next()
			return
		}
		zr, err := gzip.NewReader(ctx.Request.Body)
		if err != nil {
			ctx.String(http.StatusBadRequest, errors.ErrInvalidGzipRequest.Error())
			ctx.Abort()
			return
		}
		ctx.Request.Body = &gzipBody{Reader: zr, zr: zr, body: ctx.Request.Body}
		ctx.Request.Header.Del("Content-Encoding")
		ctx.Request.Header.Del("Content-Length")
		ctx.Request.ContentLength = -1
		ctx.Next()
	}
}

const minCompressSize = 1024

// gzipWriter buffers the first minCompressSize bytes so that small bodies,
// redirects and non-text responses go out unchanged.
type gzipWriter struct {
	gin.ResponseWriter
	buf     bytes.Buffer
	zw      *gzip.Writer
	decided bool
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	if w.decided {
		if w.zw != nil {
			if _, err := w.zw.Write(data); err != nil {
				return 0, errors.ErrGzipCompressionFailed
			}
			return len(data), nil
		}
		return w.ResponseWriter.Write(data)
	}

	w.buf.Write(data)
	if w.buf.Len() >= minCompressSize {
		if err := w.decide(); err != nil {
			return 0, err
		}
	}
	return len(data), nil
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *gzipWriter) decide() error {
	w.decided = true
	if w.compressible() {
		h := w.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		w.zw = gzip.NewWriter(w.ResponseWriter)
		if _, err := w.zw.Write(w.buf.Bytes()); err != nil {
			return errors.ErrGzipCompressionFailed
		}
	} else if _, err := w.ResponseWriter.Write(w.buf.Bytes()); err != nil {
		return err
	}
	w.buf.Reset()
	return nil
}

func (w *gzipWriter) compressible() bool {
	status := w.Status()
	if status < http.StatusOK || status == http.StatusNoContent || status == http.StatusPartialContent ||
		(status >= http.StatusMultipleChoices && status < http.StatusBadRequest) {
		return false
	}
	if w.Header().Get("Content-Encoding") != "" {
		return false
	}
	ct := strings.ToLower(w.Header().Get("Content-Type"))
	if ct == "" || strings.HasPrefix(ct, "text/event-stream") {
		return false
	}
	for _, prefix := range []string{"text/", "application/json", "application/xml", "application/javascript"} {
		if strings.HasPrefix(ct, prefix) {
			return true
		}
	}
	return false
}

func (w *gzipWriter) finish() error {
	if !w.decided {
		w.decided = true
		if w.buf.Len() > 0 {
			if _, err := w.ResponseWriter.Write(w.buf.Bytes()); err != nil {
				return err
			}
		}
		return nil
	}
	if w.zw != nil {
		if err := w.zw.Close(); err != nil {
			return errors.ErrGzipCompressionFailed
		}
	}
	return nil
}

// GzipResponseCompress compresses text responses of at least minCompressSize
// bytes for clients that accept gzip.
func GzipResponseCompress() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.Method == http.MethodHead ||
			!strings.Contains(strings.ToLower(ctx.GetHeader("Accept-Encoding")), "gzip") {
			ctx.Next()
			return
		}

		if vary := ctx.Writer.Header().Get("Vary"); vary == "" {
			ctx.Header("Vary", "Accept-Encoding")
		} else if !strings.Contains(vary, "Accept-Encoding") {
			ctx.Header("Vary", vary+", Accept-Encoding")
		}

		gw := &gzipWriter{ResponseWriter: ctx.Writer}
		ctx.Writer = gw
		defer func() {
			ctx.Writer = gw.ResponseWriter
		}()

		ctx.Next()

		if err := gw.finish(); err != nil {
			_ = ctx.Error(err)
		}
	}
}
