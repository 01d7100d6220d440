package speech

import (
	"context"
	"fmt"
	"strings"

	"aria/internal/llm"
	"aria/internal/logging"
)

const translatePrompt = "You are a translator. Translate the user's text to %s. " +
	"Reply with the translation only, no explanations."

// Service runs the full transcription step: transcribe, then optionally
// translate the transcript to the requested target language.
//
// Translation failure is non-fatal: the untranslated transcript is returned
// and the failure only logged, so a flaky chat model never costs the user a
// successfully transcribed utterance.
type Service struct {
	transcriber Transcriber
	translator  llm.Client
	logger      logging.Logger
}

// NewService wires a transcriber with an optional translator. translator may
// be nil, in which case target-language requests return untranslated text.
func NewService(transcriber Transcriber, translator llm.Client, logger logging.Logger) *Service {
	return &Service{
		transcriber: transcriber,
		translator:  translator,
		logger:      logging.OrNop(logger),
	}
}

// Transcribe converts audio to text and applies best-effort translation.
func (s *Service) Transcribe(ctx context.Context, req Request) (Result, error) {
	result, err := s.transcriber.Transcribe(ctx, req)
	if err != nil {
		return Result{}, err
	}
	if req.TargetLanguage == "" || result.Text == "" || s.translator == nil {
		return result, nil
	}

	translated, err := s.translate(ctx, result.Text, req.TargetLanguage)
	if err != nil {
		s.logger.Warn("translation to %s failed, returning original transcript: %v", req.TargetLanguage, err)
		return result, nil
	}

	result.Original = result.Text
	result.Text = translated
	result.Language = req.TargetLanguage
	result.Translated = true
	return result, nil
}

func (s *Service) translate(ctx context.Context, text, target string) (string, error) {
	resp, err := s.translator.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: "system", Content: fmt.Sprintf(translatePrompt, languageName(target))},
			{Role: "user", Content: text},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(resp.Content)
	if out == "" {
		return "", fmt.Errorf("translator returned empty text")
	}
	return out, nil
}

func languageName(tag string) string {
	switch strings.ToLower(tag) {
	case "en":
		return "English"
	case "zh":
		return "Chinese"
	default:
		return tag
	}
}
