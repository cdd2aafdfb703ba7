package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mikey/llm-email-triage/internal/core"
	"go.uber.org/zap"
)

type classifyRequest struct {
	Content  string `json:"content"`
	Subject  string `json:"subject"`
	Sender   string `json:"sender"`
	ConfigID string `json:"config_id"`
}

type responseDTO struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type classifyResponse struct {
	ID                string      `json:"id"`
	Category          string      `json:"category"`
	Confidence        *float64    `json:"confidence,omitempty"`
	Reasoning         string      `json:"reasoning"`
	SuggestedResponse responseDTO `json:"suggestedResponse"`
	Tier              string      `json:"tier"`
	ProcessedAt       string      `json:"processedAt"`
}

type companyConfigRequest struct {
	CompanyName        string `json:"company_name"`
	CustomInstructions string `json:"custom_instructions"`
	ConfigID           string `json:"config_id"`
}

func (s *Server) handleClassifyEmail(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}
	if len(req.Content) > s.maxContentLength {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("content exceeds maximum length of %d characters", s.maxContentLength),
		})
		return
	}

	// Unknown config ids are not an error; the prompt just falls back to
	// the default instructions.
	var profile *core.CompanyProfile
	if req.ConfigID != "" {
		p, err := s.store.Get(c.Request.Context(), req.ConfigID)
		if err != nil {
			s.logger.Warn("Company profile not found, using defaults",
				zap.String("config_id", req.ConfigID))
		} else {
			profile = p
		}
	}

	email := &core.Email{
		ID:        uuid.NewString(),
		Content:   req.Content,
		Subject:   req.Subject,
		Sender:    req.Sender,
		Timestamp: time.Now().UTC(),
	}

	result, err := s.pipeline.Process(c.Request.Context(), email, profile)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyContent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		case errors.Is(err, core.ErrPipelineExhausted):
			s.logger.Error("Classification pipeline exhausted", zap.String("email_id", email.ID))
			c.JSON(http.StatusBadGateway, gin.H{"error": "all classification tiers failed"})
		default:
			s.logger.Error("Classification failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "classification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, classifyResponse{
		ID:         result.ID,
		Category:   string(result.Category),
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
		SuggestedResponse: responseDTO{
			To:      result.SuggestedResponse.To,
			Subject: result.SuggestedResponse.Subject,
			Body:    result.SuggestedResponse.Body,
		},
		Tier:        result.Tier,
		ProcessedAt: result.ProcessedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleSaveCompanyConfig(c *gin.Context) {
	var req companyConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.CompanyName) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_name is required"})
		return
	}

	saved, err := s.store.Save(c.Request.Context(), &core.CompanyProfile{
		ConfigID:           req.ConfigID,
		CompanyName:        req.CompanyName,
		CustomInstructions: req.CustomInstructions,
	})
	if err != nil {
		s.logger.Error("Failed to save company profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save configuration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"config_id":    saved.ConfigID,
		"company_name": saved.CompanyName,
		"message":      "configuration saved",
	})
}

func (s *Server) handleGetCompanyConfig(c *gin.Context) {
	configID := c.Param("id")
	profile, err := s.store.Get(c.Request.Context(), configID)
	if err != nil {
		if errors.Is(err, core.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "configuration not found"})
			return
		}
		s.logger.Error("Failed to load company profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load configuration"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"config_id":           profile.ConfigID,
		"company_name":        profile.CompanyName,
		"custom_instructions": profile.CustomInstructions,
		"created_at":          profile.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// handleExtractText accepts a plain-text file upload and returns its
// contents, so callers can feed exported emails to /classify-email.
func (s *Server) handleExtractText(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > s.maxUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxUploadBytes),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read uploaded file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"text":     string(data),
		"filename": fileHeader.Filename,
		"size_kb":  float64(fileHeader.Size) / 1024.0,
	})
}
