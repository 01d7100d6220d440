package httpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"aria/internal/intent"
	"aria/internal/speech"
)

type transcribeRequest struct {
	Audio          string `json:"audio" binding:"required"`
	Format         string `json:"format"`
	Language       string `json:"language"`
	TargetLanguage string `json:"targetLanguage"`
}

type transcribeResponse struct {
	Text       string `json:"text"`
	Original   string `json:"original,omitempty"`
	Language   string `json:"language,omitempty"`
	Translated bool   `json:"translated"`
}

func (s *Server) handleTranscribe(c *gin.Context) {
	var req transcribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	audio, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio is not valid base64"})
		return
	}
	if len(audio) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "audio is empty"})
		return
	}
	if s.deps.Speech == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "transcription is not configured",
			"code":  string(speech.CodeServiceUnavailable),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.Speech.Timeout)
	defer cancel()

	start := time.Now()
	result, err := s.deps.Speech.Transcribe(ctx, speech.Request{
		Audio:          audio,
		Format:         req.Format,
		Language:       req.Language,
		TargetLanguage: req.TargetLanguage,
	})
	s.deps.Metrics.ObserveUpstream("transcribe", time.Since(start))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, transcribeResponse{
		Text:       result.Text,
		Original:   result.Original,
		Language:   result.Language,
		Translated: result.Translated,
	})
}

type parseRequest struct {
	Text          string `json:"text" binding:"required"`
	Language      string `json:"language"`
	ReferenceDate string `json:"referenceDate"`
}

// intentView is the wire shape of one parsed action.
type intentView struct {
	Type         intent.Kind `json:"type"`
	Confidence   float64     `json:"confidence"`
	Data         any         `json:"data,omitempty"`
	OriginalText string      `json:"originalText"`
}

func viewOf(p intent.ParsedIntent) intentView {
	view := intentView{
		Type:         p.Kind,
		Confidence:   p.Confidence,
		OriginalText: p.SourceText,
	}
	switch {
	case p.Todo != nil:
		view.Data = p.Todo
	case p.Expense != nil:
		view.Data = p.Expense
	case p.Event != nil:
		view.Data = p.Event
	}
	return view
}

func (s *Server) handleParse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	reference := s.clock()
	if req.ReferenceDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ReferenceDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "referenceDate must be YYYY-MM-DD"})
			return
		}
		reference = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.LLM.Timeout)
	defer cancel()

	start := time.Now()
	result, err := s.deps.Classifier.Parse(ctx, req.Text, intent.ParseContext{
		ReferenceDate: reference,
		Language:      req.Language,
	})
	s.deps.Metrics.ObserveUpstream("parse", time.Since(start))
	if err != nil {
		s.deps.Metrics.CountParse("error")
		respondError(c, err)
		return
	}

	switch result.Len() {
	case 0:
		s.deps.Metrics.CountParse("none")
		c.JSON(http.StatusOK, viewOf(intent.Unknown(result.SourceText())))
	case 1:
		s.deps.Metrics.CountParse("single")
		single, _ := result.One()
		c.JSON(http.StatusOK, viewOf(single))
	default:
		s.deps.Metrics.CountParse("batch")
		actions := make([]intentView, 0, result.Len())
		for _, p := range result.All() {
			actions = append(actions, viewOf(p))
		}
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("parsed %d actions", len(actions)),
			"actions": actions,
		})
	}
}
