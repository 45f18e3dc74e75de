package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang-headline-signal/internal/entity"
	"golang-headline-signal/internal/scoring/config"
	"golang-headline-signal/pkg/logger"

	"golang.org/x/time/rate"
)

// huggingFaceClassifier calls a text-classification model (FinBERT by
// default) on the Hugging Face inference API.
type huggingFaceClassifier struct {
	client         *http.Client
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
}

type huggingFaceRequest struct {
	Inputs  string                 `json:"inputs"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type huggingFaceLabel struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NewHuggingFaceClassifier creates a classifier for cfg.HuggingFace.Model.
func NewHuggingFaceClassifier(cfg *config.Config, log *logger.Logger) SentimentClassifier {
	return &huggingFaceClassifier{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cfg:            cfg,
		logger:         log,
		requestLimiter: newRequestLimiter(cfg.HuggingFace.MaxRequestPerMinute),
	}
}

func (r *huggingFaceClassifier) Model() string {
	return r.cfg.HuggingFace.Model
}

func (r *huggingFaceClassifier) Classify(ctx context.Context, headline string) (entity.SentimentScores, error) {
	if strings.TrimSpace(headline) == "" {
		return entity.SentimentScores{}, entity.NewClassificationError(entity.ReasonMalformedInput, fmt.Errorf("empty headline"))
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return entity.SentimentScores{}, classifyContextError(fmt.Errorf("failed to wait for request limit: %w", err))
	}

	payload, err := json.Marshal(huggingFaceRequest{
		Inputs:  headline,
		Options: map[string]interface{}{"wait_for_model": true},
	})
	if err != nil {
		return entity.SentimentScores{}, entity.NewClassificationError(entity.ReasonMalformedInput, err)
	}

	apiURL := fmt.Sprintf("%s/%s", strings.TrimRight(r.cfg.HuggingFace.BaseURL, "/"), r.cfg.HuggingFace.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewBuffer(payload))
	if err != nil {
		return entity.SentimentScores{}, entity.NewClassificationError(entity.ReasonUpstreamUnavailable, fmt.Errorf("failed to create new http request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.HuggingFace.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.HuggingFace.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return entity.SentimentScores{}, classifyContextError(ctx.Err())
		}
		r.logger.Error("Failed to send request to inference API", logger.ErrorField(err))
		return entity.SentimentScores{}, entity.NewClassificationError(entity.ReasonUpstreamUnavailable, fmt.Errorf("failed to send request to inference API: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return entity.SentimentScores{}, classifyContextError(ctx.Err())
		}
		return entity.SentimentScores{}, entity.NewClassificationError(entity.ReasonUpstreamUnavailable, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		r.logger.Warn("Received non-OK response from inference API",
			logger.IntField("status_code", resp.StatusCode),
			logger.StringField("body", truncate(string(body), 256)),
		)
		return entity.SentimentScores{}, entity.NewClassificationError(reasonForStatus(resp.StatusCode),
			fmt.Errorf("received non-OK response from inference API: %d", resp.StatusCode))
	}

	scores, err := parseHuggingFaceResponse(body)
	if err != nil {
		r.logger.Error("Failed to parse inference API response", logger.ErrorField(err), logger.StringField("body", truncate(string(body), 256)))
		return entity.SentimentScores{}, entity.NewClassificationError(entity.ReasonMalformedOutput, err)
	}
	return scores, nil
}

// parseHuggingFaceResponse accepts both the nested ([[...]]) and flat ([...])
// shapes the text-classification pipeline returns.
func parseHuggingFaceResponse(body []byte) (entity.SentimentScores, error) {
	var nested [][]huggingFaceLabel
	var flat []huggingFaceLabel
	if err := json.Unmarshal(body, &nested); err == nil && len(nested) > 0 {
		flat = nested[0]
	} else if err := json.Unmarshal(body, &flat); err != nil {
		return entity.SentimentScores{}, fmt.Errorf("failed to decode response body: %w", err)
	}

	labels := make(map[string]float64, len(flat))
	for _, l := range flat {
		labels[l.Label] = l.Score
	}
	return scoresFromLabels(labels)
}

func reasonForStatus(status int) entity.ClassificationReason {
	switch {
	case status == http.StatusBadRequest, status == http.StatusRequestEntityTooLarge, status == http.StatusUnprocessableEntity:
		return entity.ReasonMalformedInput
	case status == http.StatusGatewayTimeout, status == http.StatusRequestTimeout:
		return entity.ReasonTimeout
	default:
		return entity.ReasonUpstreamUnavailable
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
