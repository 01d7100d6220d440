package intent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"aria/internal/llm"
	"aria/internal/logging"
)

// ErrEmptyUtterance rejects parse calls with nothing to parse.
var ErrEmptyUtterance = errors.New("utterance is empty")

// Classifier maps one free-text utterance to structured intents. The LLM is
// treated as a black-box oracle behind this interface so the prompt assembly,
// JSON extraction and validation around it are testable against canned
// replies.
type Classifier interface {
	Parse(ctx context.Context, text string, parseCtx ParseContext) (Result, error)
}

// LLMClassifier implements Classifier on top of a chat model.
type LLMClassifier struct {
	client      llm.Client
	temperature float64
	logger      logging.Logger
	cache       *lru.Cache[string, []ParsedIntent]
}

// ClassifierOption configures an LLMClassifier.
type ClassifierOption func(*LLMClassifier)

// WithCacheSize enables an LRU cache over (utterance, reference date,
// language) so an identical re-ask skips the upstream call. size <= 0
// disables caching.
func WithCacheSize(size int) ClassifierOption {
	return func(c *LLMClassifier) {
		if size <= 0 {
			return
		}
		cache, err := lru.New[string, []ParsedIntent](size)
		if err == nil {
			c.cache = cache
		}
	}
}

// WithTemperature overrides the sampling temperature for parse calls.
func WithTemperature(t float64) ClassifierOption {
	return func(c *LLMClassifier) {
		c.temperature = t
	}
}

// NewLLMClassifier builds the production classifier.
func NewLLMClassifier(client llm.Client, logger logging.Logger, opts ...ClassifierOption) *LLMClassifier {
	c := &LLMClassifier{
		client:      client,
		temperature: 0.2,
		logger:      logging.OrNop(logger),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse sends the utterance to the model and resolves the reply into a
// Result. Upstream failures surface as typed errors; a reply that simply
// cannot be understood degrades to an empty Result, never an error, so the
// caller can fall back to manual entry.
func (c *LLMClassifier) Parse(ctx context.Context, text string, parseCtx ParseContext) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyUtterance
	}

	cacheKey := fmt.Sprintf("%s|%s|%s", text, parseCtx.ReferenceDate.Format(dayLayout), parseCtx.Language)
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			c.logger.Debug("parse cache hit for %q", text)
			return Batch(text, cached), nil
		}
	}

	resp, err := c.client.Complete(ctx, llm.CompletionRequest{
		Messages:    buildMessages(text, parseCtx),
		Temperature: c.temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent parse: %w", err)
	}

	result := c.resolve(resp.Content, text, parseCtx)
	if c.cache != nil {
		c.cache.Add(cacheKey, result.All())
	}
	return result, nil
}

// resolve turns the raw model reply into a Result. Every failure path lands
// on None.
func (c *LLMClassifier) resolve(reply, sourceText string, parseCtx ParseContext) Result {
	candidate, ok := ExtractJSON(reply)
	if !ok {
		c.logger.Warn("no JSON found in model reply (%d bytes)", len(reply))
		return None(sourceText)
	}

	actions, ok := decodeActions(candidate)
	if !ok {
		repaired, repairedOK := RepairJSON(candidate)
		if repairedOK {
			actions, ok = decodeActions(repaired)
		}
		if !ok {
			c.logger.Warn("model reply JSON not decodable, degrading to unknown")
			return None(sourceText)
		}
	}

	intents := make([]ParsedIntent, 0, len(actions))
	for _, raw := range actions {
		normalized := normalizeAction(raw, sourceText, parseCtx)
		if normalized.Actionable() {
			intents = append(intents, normalized)
		}
	}
	if len(intents) == 0 {
		return None(sourceText)
	}
	return Batch(sourceText, intents)
}

// decodeActions accepts every envelope shape the model has been seen to emit:
// a bare array, {"actions": [...]}, {"action": {...}}, or one action object.
func decodeActions(candidate string) ([]rawAction, bool) {
	trimmed := strings.TrimSpace(candidate)
	if strings.HasPrefix(trimmed, "[") {
		var actions []rawAction
		if err := json.Unmarshal([]byte(trimmed), &actions); err != nil {
			return nil, false
		}
		return actions, true
	}

	var env struct {
		Actions []rawAction `json:"actions"`
		Action  *rawAction  `json:"action"`

		Type       string         `json:"type"`
		Kind       string         `json:"kind"`
		Confidence float64        `json:"confidence"`
		Data       map[string]any `json:"data"`
	}
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, false
	}
	switch {
	case env.Actions != nil:
		return env.Actions, true
	case env.Action != nil:
		return []rawAction{*env.Action}, true
	case env.Type != "" || env.Kind != "":
		return []rawAction{{Type: env.Type, Kind: env.Kind, Confidence: env.Confidence, Data: env.Data}}, true
	default:
		return nil, false
	}
}
