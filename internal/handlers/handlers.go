package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrisense/agri-api/internal/advice"
	"github.com/agrisense/agri-api/internal/metrics"
	"github.com/agrisense/agri-api/internal/model"
	"github.com/agrisense/agri-api/internal/prompt"
)

const (
	rootMessage   = "TNAU Agri Chatbot API is running!"
	healthMessage = "Backend is running successfully"
)

// Classifier labels a staged image file.
type Classifier interface {
	ClassifyFile(ctx context.Context, path string) (model.Prediction, error)
}

// Advisor produces written advice for a diagnosis or a question.
type Advisor interface {
	DiseaseInfo(ctx context.Context, label, language, followup string) (string, error)
	Ask(ctx context.Context, query, language string) (string, error)
}

type Options struct {
	MaxUploadSize int64
	TempDir       string // staging directory for uploads, empty for os.TempDir
}

type Handler struct {
	classifier Classifier
	advisor    Advisor
	logger     *zap.Logger
	opts       Options
}

func NewHandler(classifier Classifier, advisor Advisor, opts Options, logger *zap.Logger) *Handler {
	return &Handler{
		classifier: classifier,
		advisor:    advisor,
		logger:     logger,
		opts:       opts,
	}
}

type PredictResponse struct {
	PredictedLabel string         `json:"predicted_label"`
	Confidence     float64        `json:"confidence"`
	LLMResponse    string         `json:"llm_response"`
	LLMStatus      advice.Outcome `json:"llm_status"`
}

type ChatResponse struct {
	Response  string         `json:"response"`
	LLMStatus advice.Outcome `json:"llm_status"`
}

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": rootMessage})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": healthMessage})
}

func (h *Handler) Predict(c *gin.Context) {
	log := requestLog(c, h.logger)

	if c.Request.ContentLength > h.opts.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadSize)

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload too large"})
			return
		}
		log.Info("missing image upload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image file provided. Use 'image' as the form field name"})
		return
	}
	language := c.DefaultPostForm("language", prompt.DefaultLanguage)
	followup := c.PostForm("followup_question")

	log.Info("received image",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
		zap.String("content_type", header.Header.Get("Content-Type")),
		zap.String("language", language))

	path, err := h.stage(header)
	if err != nil {
		log.Error("failed to stage upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn("failed to remove staged upload", zap.String("path", path), zap.Error(err))
		}
	}()

	pred, err := h.classifier.ClassifyFile(c.Request.Context(), path)
	if err != nil {
		metrics.ClassifyErrorsTotal.Inc()
		if errors.Is(err, model.ErrInvalidImage) {
			log.Info("rejected image", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image format. Supported: JPEG, PNG, GIF, WebP, BMP"})
			return
		}
		log.Error("prediction failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
		return
	}
	metrics.PredictionsTotal.WithLabelValues(pred.Label).Inc()
	log.Info("image classified",
		zap.String("label", pred.Label),
		zap.Float32("confidence", pred.Confidence))

	text, err := h.advisor.DiseaseInfo(c.Request.Context(), pred.Label, language, followup)
	if err != nil {
		text = advice.Message(err)
	}

	c.JSON(http.StatusOK, PredictResponse{
		PredictedLabel: pred.Label,
		Confidence:     pred.Percent(),
		LLMResponse:    text,
		LLMStatus:      advice.OutcomeOf(err),
	})
}

func (h *Handler) Chat(c *gin.Context) {
	query, ok := c.GetPostForm("query")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Field 'query' is required"})
		return
	}
	language := c.DefaultPostForm("language", prompt.DefaultLanguage)

	text, err := h.advisor.Ask(c.Request.Context(), query, language)
	if err != nil {
		text = advice.Message(err)
	}

	c.JSON(http.StatusOK, ChatResponse{
		Response:  text,
		LLMStatus: advice.OutcomeOf(err),
	})
}

// stage copies an upload into a temporary file and returns its path. The
// caller owns the file.
func (h *Handler) stage(header *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}

	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(h.opts.TempDir, "agri-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return dst.Name(), nil
}
