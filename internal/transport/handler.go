package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/flag-inspector-go/internal/config"
	apperrors "github.com/anime-shed/flag-inspector-go/internal/errors"
	"github.com/anime-shed/flag-inspector-go/internal/logger"
	"github.com/anime-shed/flag-inspector-go/internal/observer"
	"github.com/anime-shed/flag-inspector-go/internal/service"
	"github.com/anime-shed/flag-inspector-go/pkg/models"
)

// Version is reported by /health
const Version = "1.0.0"

// uploadField is the multipart field carrying an uploaded flag image
const uploadField = "image"

// StatsProvider exposes inspection counters for /stats
type StatsProvider interface {
	GetStats() observer.Stats
}

func NewHandler(svc service.FlagInspectionService, stats StatsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/stats", statsHandler(stats))
	r.POST("/inspect", inspectImage(svc, cfg))
	r.POST("/inspect/upload", inspectUpload(svc, cfg))
	r.POST("/inspect/batch", inspectBatch(svc, cfg))

	return r
}

func inspectImage(svc service.FlagInspectionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.InspectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindStatus(err), "invalid request format", err)
			return
		}

		if err := svc.ValidateSource(req.URL); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid image URL", err)
			return
		}

		resp, err := svc.Inspect(ctx, req.URL)
		if err != nil {
			respondError(c, determineStatusCode(err), "inspection failed", err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func inspectUpload(svc service.FlagInspectionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		fh, err := c.FormFile(uploadField)
		if err != nil {
			respondError(c, bindStatus(err), fmt.Sprintf("multipart field %q is required", uploadField), err)
			return
		}
		if fh.Size > cfg.MaxImageSize {
			tooLarge := apperrors.NewTooLargeError("image exceeds maximum allowed size", nil)
			respondError(c, tooLarge.StatusCode, "upload rejected", tooLarge)
			return
		}

		f, err := fh.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read upload", err)
			return
		}
		defer f.Close()

		data, err := io.ReadAll(io.LimitReader(f, cfg.MaxImageSize+1))
		if err != nil {
			respondError(c, http.StatusBadRequest, "failed to read upload", err)
			return
		}

		resp, err := svc.InspectUpload(ctx, fh.Filename, data)
		if err != nil {
			respondError(c, determineStatusCode(err), "inspection failed", err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func inspectBatch(svc service.FlagInspectionService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.BatchInspectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, bindStatus(err), "invalid request format", err)
			return
		}

		batch, err := svc.InspectBatch(ctx, req.URLs)
		if err != nil {
			respondError(c, determineStatusCode(err), "batch rejected", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"total":     batch.Total,
			"succeeded": batch.Succeeded,
			"failed":    batch.Failed,
		}).Info("Batch inspection completed")

		c.JSON(http.StatusOK, batch)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func statsHandler(stats StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		if stats == nil {
			c.JSON(http.StatusOK, observer.Stats{})
			return
		}
		c.JSON(http.StatusOK, stats.GetStats())
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"user_agent":  c.Request.UserAgent(),
			"ip":          c.ClientIP(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last().Err
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

// bindStatus maps body decoding failures, where an oversized body is a 413
func bindStatus(err error) int {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// statusClientClosedRequest is the nginx convention for a client that went
// away before the response was written
const statusClientClosedRequest = 499

func statusText(code int) string {
	if code == statusClientClosedRequest {
		return "Client Closed Request"
	}
	return http.StatusText(code)
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   statusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
