package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/medassist/backend/pkg/config"
	"github.com/medassist/backend/pkg/logger"
)

// ErrModelUnavailable is returned when the inference service is unreachable or
// responds with a non-success status. Callers on the medical path must substitute
// the fallback response instead of failing the request.
var ErrModelUnavailable = errors.New("model service unavailable")

type Client struct {
	ollamaURL          string
	medicalTemperature float64
	generalTemperature float64
	maxTokens          int
	forbiddenPhrases   []string
	httpClient         *http.Client
	pullClient         *http.Client

	mu           sync.RWMutex
	available    bool
	models       []string
	defaultModel string
	medicalModel string
	preferred    []string
}

// Result is the shaped outcome of one generation, degraded or not.
type Result struct {
	Response           string
	Confidence         float64
	Model              string
	Temperature        float64
	ResponseTimeMS     int
	DisclaimerIncluded bool
	Overridden         bool
	Err                string
}

type ModelInfo struct {
	Available    bool     `json:"available"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
	MedicalModel string   `json:"medical_model"`
	OllamaURL    string   `json:"ollama_url"`
}

func NewClient(cfg config.OllamaConfig, safety config.SafetyConfig) *Client {
	return &Client{
		ollamaURL:          cfg.URL,
		medicalTemperature: cfg.MedicalTemperature,
		generalTemperature: cfg.GeneralTemperature,
		maxTokens:          cfg.MaxTokens,
		forbiddenPhrases:   safety.ForbiddenPhrases,
		httpClient:         &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second},
		pullClient:         &http.Client{Timeout: time.Duration(cfg.PullTimeoutSec) * time.Second},
		defaultModel:       cfg.DefaultModel,
		medicalModel:       cfg.DefaultModel,
		preferred:          cfg.PreferredModels,
	}
}

// Initialize probes the inference service, enumerates installed models and picks
// one from the preference list. As a last resort it asks the service to pull the
// configured default. The server still starts when this fails; health reports
// the gateway as not ready.
func (c *Client) Initialize(ctx context.Context) error {
	models, err := c.listModels(ctx)
	if err != nil {
		c.mu.Lock()
		c.available = false
		c.mu.Unlock()
		return fmt.Errorf("failed to reach inference service: %w", err)
	}

	c.mu.Lock()
	c.models = models
	c.mu.Unlock()

	if err := c.selectModel(ctx); err != nil {
		c.mu.Lock()
		c.available = false
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	c.available = true
	c.mu.Unlock()

	logger.Info("Model gateway initialized",
		zap.Strings("models", models),
		zap.String("default_model", c.DefaultModel()),
	)

	return nil
}

func (c *Client) selectModel(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, want := range c.preferred {
		for _, have := range c.models {
			if want == have {
				c.defaultModel = want
				c.medicalModel = want
				return nil
			}
		}
	}

	if len(c.models) > 0 {
		c.defaultModel = c.models[0]
		c.medicalModel = c.models[0]
		logger.Info("No preferred model installed, using first available",
			zap.String("model", c.defaultModel))
		return nil
	}

	logger.Warn("No models installed, attempting to pull default",
		zap.String("model", c.defaultModel))

	// pullModel takes c.mu itself; release around the call.
	name := c.defaultModel
	c.mu.Unlock()
	err := c.pullModel(ctx, name)
	c.mu.Lock()
	if err != nil {
		return fmt.Errorf("no usable model: %w", err)
	}
	return nil
}

// IsReady reports whether the service was reachable at initialization and at
// least one model is known. It does not re-probe.
func (c *Client) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available && len(c.models) > 0
}

func (c *Client) DefaultModel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultModel
}

func (c *Client) Info() ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	models := make([]string, len(c.models))
	copy(models, c.models)

	return ModelInfo{
		Available:    c.available,
		Models:       models,
		DefaultModel: c.defaultModel,
		MedicalModel: c.medicalModel,
		OllamaURL:    c.ollamaURL,
	}
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (c *Client) listModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ollamaURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tags returned status %d", ErrModelUnavailable, resp.StatusCode)
	}

	var tags tagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode model list: %w", err)
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}

	return names, nil
}

func (c *Client) pullModel(ctx context.Context, name string) error {
	payload, _ := json.Marshal(map[string]string{"name": name})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ollamaURL+"/api/pull", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.pullClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: pull returned status %d", ErrModelUnavailable, resp.StatusCode)
	}

	c.mu.Lock()
	c.models = append(c.models, name)
	c.mu.Unlock()

	logger.Info("Model pulled", zap.String("model", name))
	return nil
}

type generateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
	Stream bool `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// generate issues one blocking request with the configured multi-minute timeout.
// There is no retry: a failure surfaces immediately.
func (c *Client) generate(ctx context.Context, prompt string, temperature float64, model string) (string, error) {
	var body generateRequest
	body.Model = model
	body.Prompt = prompt
	body.Options.Temperature = temperature
	body.Options.NumPredict = c.maxTokens
	body.Stream = false

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ollamaURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: generate returned status %d: %s", ErrModelUnavailable, resp.StatusCode, raw)
	}

	var gen generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&gen); err != nil {
		return "", fmt.Errorf("failed to decode generate response: %w", err)
	}

	return gen.Response, nil
}

// GenerateMedical produces a safeguarded medical response. It never returns an
// error: a failed model call degrades to the fixed fallback with confidence 0.
func (c *Client) GenerateMedical(ctx context.Context, prompt string, history []ContextTurn, includeDisclaimer bool) *Result {
	if !c.IsReady() {
		return c.fallback("model gateway not ready")
	}

	c.mu.RLock()
	model := c.medicalModel
	c.mu.RUnlock()

	start := time.Now()
	raw, err := c.generate(ctx, BuildMedicalPrompt(prompt, history), c.medicalTemperature, model)
	elapsed := int(time.Since(start).Milliseconds())

	if err != nil {
		logger.Error("Medical generation failed", zap.Error(err))
		return c.fallback(err.Error())
	}

	text := raw
	overridden := false

	if verdict := Evaluate(raw, c.forbiddenPhrases); !verdict.Accepted {
		logger.Warn("Generated text overrode safety policy, substituting redirect",
			zap.String("phrase", verdict.Phrase))
		text = safeRedirect
		overridden = true
	}

	// Scored on the bare reply. The disclaimer preamble alone exceeds the
	// length threshold and mentions consulting a provider.
	confidence := Confidence(text)

	if includeDisclaimer {
		text = Disclaimer + text
	}

	return &Result{
		Response:           text,
		Confidence:         confidence,
		Model:              model,
		Temperature:        c.medicalTemperature,
		ResponseTimeMS:     elapsed,
		DisclaimerIncluded: includeDisclaimer,
		Overridden:         overridden,
	}
}

// GenerateGeneral produces an ungoverned response with the lighter preamble.
func (c *Client) GenerateGeneral(ctx context.Context, prompt string, history []ContextTurn) *Result {
	if !c.IsReady() {
		return c.fallback("model gateway not ready")
	}

	c.mu.RLock()
	model := c.defaultModel
	c.mu.RUnlock()

	start := time.Now()
	raw, err := c.generate(ctx, BuildGeneralPrompt(prompt, history), c.generalTemperature, model)
	elapsed := int(time.Since(start).Milliseconds())

	if err != nil {
		logger.Error("General generation failed", zap.Error(err))
		return c.fallback(err.Error())
	}

	return &Result{
		Response:       raw,
		Confidence:     Confidence(raw),
		Model:          model,
		Temperature:    c.generalTemperature,
		ResponseTimeMS: elapsed,
	}
}

func (c *Client) fallback(cause string) *Result {
	return &Result{
		Response:           Disclaimer + FallbackMessage,
		Confidence:         0.0,
		Model:              "fallback",
		DisclaimerIncluded: true,
		Err:                cause,
	}
}
