package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// geminiClassifier prompts Gemini for a probability triple.
type geminiClassifier struct {
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

// NewGeminiClassifier creates a classifier backed by the Gemini API.
func NewGeminiClassifier(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) SentimentClassifier {
	return &geminiClassifier{
		cfg:            cfg,
		logger:         log,
		requestLimiter: newRequestLimiter(cfg.Gemini.MaxRequestPerMinute),
		genAiClient:    genAiClient,
	}
}

func (r *geminiClassifier) Model() string {
	return r.cfg.Gemini.Model
}

func (r *geminiClassifier) Classify(ctx context.Context, headline string) (entity.SentimentScores, error) {
	if strings.TrimSpace(headline) == "" {
		return entity.SentimentScores{}, entity.NewClassificationError(entity.ReasonMalformedInput, fmt.Errorf("empty headline"))
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return entity.SentimentScores{}, classifyContextError(fmt.Errorf("failed to wait for request limit: %w", err))
	}

	contents := []*genai.Content{
		genai.NewContentFromText(BuildSentimentPrompt(headline), "user"),
	}
	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		if ctx.Err() != nil {
			return entity.SentimentScores{}, classifyContextError(ctx.Err())
		}
		r.logger.Error("Failed to generate content from Gemini API", logger.ErrorField(err))
		return entity.SentimentScores{}, entity.NewClassificationError(entity.ReasonUpstreamUnavailable, fmt.Errorf("failed to generate content: %w", err))
	}

	scores, err := parseGeminiScores(resp.Text())
	if err != nil {
		r.logger.Error("Failed to parse Gemini response", logger.ErrorField(err), logger.StringField("response", truncate(resp.Text(), 256)))
		return entity.SentimentScores{}, entity.NewClassificationError(entity.ReasonMalformedOutput, err)
	}
	return scores, nil
}

// parseGeminiScores decodes the model's JSON answer. A triple that is not a
// probability distribution is rejected.
func parseGeminiScores(raw string) (entity.SentimentScores, error) {
	raw = strings.Trim(strings.TrimSpace(raw), "`")
	raw = strings.TrimPrefix(raw, "json")

	var labels map[string]float64
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &labels); err != nil {
		return entity.SentimentScores{}, fmt.Errorf("failed to unmarshal sentiment scores from Gemini response: %w", err)
	}
	return scoresFromLabels(labels)
}
