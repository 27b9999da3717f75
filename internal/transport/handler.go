package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go-skin-analyzer/internal/config"
	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/service"
	"go-skin-analyzer/pkg/models"
	"go-skin-analyzer/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	version = "1.0.0"
	// multipartOverhead is the room left for boundaries and the other form fields.
	multipartOverhead = 1 << 20
	photoField        = "photo"
	localeField       = "locale"
)

// User-facing messages, in the storefront's language.
const (
	msgUnsupportedFormat = "Format de fichier non supporté. Utilisez JPG, PNG ou WEBP."
	msgFileTooLarge      = "Fichier trop volumineux. Maximum %dMB."
	msgImageDimensions   = "Image trop grande. Réduis sa résolution avant de l'envoyer."
	msgMissingPhoto      = "Aucune photo reçue. Sélectionne une image avant de lancer l'analyse."
	msgProcessing        = "Erreur lors du traitement de l'image."
	msgTimeout           = "L'analyse prend trop de temps. Veuillez réessayer."
	msgTooSoon           = "Merci de patienter quelques secondes avant une nouvelle analyse."
	msgInFlight          = "Une analyse est déjà en cours. Merci de patienter."
	msgGeneric           = "Une erreur est survenue. Veuillez réessayer."
)

type handler struct {
	svc            service.AnalysisService
	requestTimeout time.Duration
	maxUploadSize  int64
	log            *logrus.Logger
}

// NewHandler builds the HTTP surface over svc.
func NewHandler(svc service.AnalysisService, cfg *config.Config, log *logrus.Logger) http.Handler {
	h := &handler{
		svc:            svc,
		requestTimeout: cfg.RequestTimeout,
		maxUploadSize:  cfg.MaxUploadSize,
		log:            log,
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		h.requestLogger(),
	)

	r.GET("/health", healthCheck)
	r.GET("/stats", h.stats)
	r.POST("/analyze", requestSizeLimiter(cfg.MaxUploadSize+multipartOverhead), h.analyze)

	return r
}

func (h *handler) analyze(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.requestTimeout)
	defer cancel()

	fh, err := c.FormFile(photoField)
	if err != nil {
		h.respondError(c, uploadError(err))
		return
	}
	data, err := readUpload(fh)
	if err != nil {
		h.respondError(c, apperrors.NewInternalError("failed to read upload", err))
		return
	}

	resp, err := h.svc.Analyze(ctx, service.AnalyzeInput{
		FileName:     fh.Filename,
		Data:         data,
		DeclaredMIME: fh.Header.Get("Content-Type"),
		Locale:       requestLocale(c),
		UserAgent:    c.Request.UserAgent(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "available",
		Version: version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// uploadError classifies a failure to read the multipart photo field.
func uploadError(err error) *apperrors.AppError {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		appErr := apperrors.NewValidationError(validation.MsgFileTooLarge, err)
		appErr.StatusCode = http.StatusRequestEntityTooLarge
		return appErr
	}
	return apperrors.NewValidationError(validation.MsgEmptyFile, err)
}

// requestLocale prefers the form field and falls back to the first
// Accept-Language tag.
func requestLocale(c *gin.Context) string {
	if l := strings.TrimSpace(c.PostForm(localeField)); l != "" {
		return l
	}
	header := c.GetHeader("Accept-Language")
	if header == "" {
		return ""
	}
	tag := strings.Split(header, ",")[0]
	tag = strings.TrimSpace(strings.Split(tag, ";")[0])
	if tag == "*" {
		return ""
	}
	return tag
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func (h *handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := h.log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("Request completed with server error")
			return
		}
		entry.Debug("Request completed")
	}
}

func determineStatusCode(err error) int {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	body := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: h.userMessage(err),
	}

	if appErr, ok := apperrors.As(err); ok {
		body.Type = string(appErr.Type)
		if appErr.RetryAfter > 0 {
			body.RetryAfterMs = appErr.RetryAfter.Milliseconds()
			c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(appErr.RetryAfter)))
		}
	}

	h.log.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, body)
}

func (h *handler) userMessage(err error) string {
	appErr, ok := apperrors.As(err)
	if !ok {
		return msgGeneric
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		switch appErr.Message {
		case validation.MsgUnsupportedFormat:
			return msgUnsupportedFormat
		case validation.MsgFileTooLarge:
			return fmt.Sprintf(msgFileTooLarge, h.maxUploadSize>>20)
		case validation.MsgImageDimensions:
			return msgImageDimensions
		case validation.MsgEmptyFile:
			return msgMissingPhoto
		}
		return msgGeneric
	case apperrors.ErrorTypeDecode:
		return msgProcessing
	case apperrors.ErrorTypeTimeout:
		return msgTimeout
	case apperrors.ErrorTypeRateLimited:
		return msgTooSoon
	case apperrors.ErrorTypeAlreadyInFlight:
		return msgInFlight
	default:
		return msgGeneric
	}
}

// retryAfterSeconds rounds up so a client never retries too early.
func retryAfterSeconds(d time.Duration) int {
	return int(math.Ceil(d.Seconds()))
}
