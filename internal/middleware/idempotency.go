package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/idempotency"
	"grantdesk/internal/logger"
	"grantdesk/internal/metrics"
)

const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotencyReplayedHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLength   = 128
)

// Idempotency replays the stored response of a successful mutation when a
// client retries it with the same Idempotency-Key. Requests without the
// header pass through untouched. When the store is unavailable the request
// is processed without protection.
func Idempotency(store idempotency.Store, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || store == nil || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Idempotency-Key is too long"))
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unable to read request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		caller := "anonymous"
		if p, ok := PrincipalFrom(c); ok {
			caller = p.UserID
		}
		scoped := caller + ":" + c.Request.Method + ":" + c.FullPath() + ":" + key
		fingerprint := fingerprintOf(body)

		log := logger.Named("idempotency")
		ctx := c.Request.Context()

		existing, reserved, err := store.Reserve(ctx, scoped, fingerprint, ttl)
		if err != nil {
			log.Warnw("idempotency store unavailable, processing without protection", "error", err)
			c.Next()
			return
		}

		if !reserved {
			switch {
			case existing.Fingerprint != fingerprint:
				abortWithError(c, apperrors.ErrIdempotencyKeyReused)
			case existing.Pending:
				abortWithError(c, apperrors.ErrIdempotencyInProgress)
			default:
				metrics.IdempotentReplays.Inc()
				c.Header(IdempotencyReplayedHeader, "true")
				c.Data(existing.Status, gin.MIMEJSON, existing.Body)
				c.Abort()
			}
			return
		}

		recorder := &responseRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			rec := idempotency.Record{Fingerprint: fingerprint, Status: status, Body: recorder.body.Bytes()}
			if err := store.Complete(ctx, scoped, rec, ttl); err != nil {
				log.Errorw("failed to store idempotent response", "error", err)
			}
			return
		}

		// Failed attempts may be retried with the same key.
		if err := store.Release(ctx, scoped); err != nil {
			log.Errorw("failed to release idempotency key", "error", err)
		}
	}
}

func fingerprintOf(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type responseRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}
