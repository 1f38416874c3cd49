// Package genai translates through the Google Gemini API.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/digesto/internal/domain"
	"github.com/kailas-cloud/digesto/internal/transport/prompt"
)

// Config holds the provider settings.
type Config struct {
	APIKey  string
	BaseURL string // empty = Gemini API default endpoint
	Model   string
	Logger  *zap.Logger
}

// Translator implements domain.Translator on top of Models.GenerateContent.
type Translator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewTranslator creates a Gemini translation provider.
func NewTranslator(ctx context.Context, cfg *Config) (*Translator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Translator{
		client: client,
		model:  cfg.Model,
		logger: cfg.Logger,
	}, nil
}

// Translate implements domain.Translator.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	resp, err := t.client.Models.GenerateContent(ctx,
		t.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(prompt.System(sourceLang, targetLang), genai.RoleUser),
			Temperature:       genai.Ptr[float32](0),
		},
	)
	if err != nil {
		return "", parseAPIError(err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", fmt.Errorf("blank response (%s): %w", blockReason(resp), domain.ErrTranslationFailed)
	}

	if resp.UsageMetadata != nil {
		t.logger.Debug("Generation received",
			zap.String("model", t.model),
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("candidate_tokens", resp.UsageMetadata.CandidatesTokenCount),
		)
	}
	return out, nil
}

func blockReason(resp *genai.GenerateContentResponse) string {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "blocked: " + string(resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != "" {
		return "finish_reason=" + string(resp.Candidates[0].FinishReason)
	}
	return "no candidates"
}

// parseAPIError wraps every provider error with domain.ErrTranslationFailed.
func parseAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, apiErr.Message, domain.ErrTranslationFailed)
	}
	return fmt.Errorf("gemini request failed: %w: %w", domain.ErrTranslationFailed, err)
}
