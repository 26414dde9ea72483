package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-image-query/internal/config"
	"go-image-query/internal/encoder"
	apperrors "go-image-query/internal/errors"
	"go-image-query/internal/factory"
	"go-image-query/internal/logger"
	"go-image-query/internal/service"
	"go-image-query/pkg/validation"
)

// AnalyzeRequest is the JSON body for a submission. The image arrives either
// as a client-built data URI or as a reference the server fetches itself.
type AnalyzeRequest struct {
	Question     string `json:"question"`
	ImageDataURI string `json:"image_data_uri,omitempty"`
	ImageURL     string `json:"image_url,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewHandler(svc service.AnalysisService, sources *factory.SourceResolver, cfg *config.Config) http.Handler {
	r := gin.Default()

	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/quick-actions", listQuickActions(svc))
	r.POST("/analyze", analyze(svc, sources, cfg))
	r.POST("/quick-actions/:name", quickAction(svc, sources, cfg))

	return r
}

func analyze(svc service.AnalysisService, sources *factory.SourceResolver, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		question, image, ok := bindSubmission(c, ctx, sources)
		if !ok {
			return
		}

		outcome := svc.Analyze(ctx, question, image)
		respondOutcome(c, outcome, startTime)
	}
}

func quickAction(svc service.AnalysisService, sources *factory.SourceResolver, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		_, image, ok := bindSubmission(c, ctx, sources)
		if !ok {
			return
		}

		outcome := svc.QuickAction(ctx, c.Param("name"), image)
		respondOutcome(c, outcome, startTime)
	}
}

// bindSubmission extracts the question and encoded image from either a
// multipart upload or a JSON body. On failure it has already written the
// error response and returns ok=false.
func bindSubmission(c *gin.Context, ctx context.Context, sources *factory.SourceResolver) (string, *encoder.UploadedImage, bool) {
	contentType := c.ContentType()

	if contentType == "multipart/form-data" {
		question := c.PostForm("question")
		fileHeader, err := c.FormFile("image")
		if err != nil {
			respondError(c, http.StatusBadRequest, "missing image file", err)
			return "", nil, false
		}
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "unreadable image file", err)
			return "", nil, false
		}
		defer file.Close()

		image, err := encoder.EncodeReader(file, fileHeader.Header.Get("Content-Type"))
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "failed to encode image", err)
			return "", nil, false
		}
		return question, image, true
	}

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return "", nil, false
	}

	image, err := resolveImage(ctx, sources, req)
	if err != nil {
		respondError(c, apperrors.GetStatusCode(err), "failed to load image", err)
		return "", nil, false
	}
	return req.Question, image, true
}

// resolveImage turns the request's image fields into an encoded payload.
// A data URI wins over a reference when both are present.
func resolveImage(ctx context.Context, sources *factory.SourceResolver, req AnalyzeRequest) (*encoder.UploadedImage, error) {
	switch {
	case req.ImageDataURI != "":
		return encoder.ParseDataURI(req.ImageDataURI)
	case req.ImageURL != "":
		if factory.Classify(req.ImageURL) == factory.HTTPSource {
			if err := validation.NewURLValidator().ValidateImageURL(req.ImageURL); err != nil {
				return nil, err
			}
		}
		data, declaredType, err := sources.Fetch(ctx, req.ImageURL)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, apperrors.NewTimeoutError("image fetch timeout", err)
			}
			return nil, apperrors.NewNetworkError("failed to fetch image", err)
		}
		return encoder.EncodeBytes(data, declaredType), nil
	default:
		// No image at all; the orchestrator reports the canonical
		// missing-input failure without touching the network.
		return nil, nil
	}
}

func respondOutcome(c *gin.Context, outcome *service.Outcome, startTime time.Time) {
	duration := time.Since(startTime)

	if outcome.State == service.StateSucceeded {
		logger.WithFields(logrus.Fields{
			"processing_time_ms": duration.Milliseconds(),
			"state":              outcome.State,
		}).Info("analysis request completed")
		c.JSON(http.StatusOK, outcome)
		return
	}

	status := http.StatusInternalServerError
	message := "analysis failed"
	if err := outcome.Err(); err != nil {
		status = err.StatusCode
		message = outcome.Failure.Message
	}
	logger.WithFields(logrus.Fields{
		"processing_time_ms": duration.Milliseconds(),
		"state":              outcome.State,
		"status_code":        status,
	}).Warn(message)
	c.JSON(status, outcome)
}

func listQuickActions(svc service.AnalysisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"actions": svc.QuickActionNames()})
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
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

	c.AbortWithStatusJSON(code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
