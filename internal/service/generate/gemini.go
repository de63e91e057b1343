package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lumenlabs/brandflow/internal/config"
)

const (
	textSystemInstruction = "You are a brand ambassador and expert social media content creator. Generate concise, engaging, and professional content based on the user's notes."
	imagePromptPrefix     = "Create a vibrant, professional, and eye-catching image for a social media post. The theme is: "
	videoPromptPrefix     = "Create a short, dynamic, and engaging video for social media. The theme is: "
)

// Gemini talks to the Google generative language REST API.
type Gemini struct {
	config       *config.GeneratorConfig
	logger       *zap.Logger
	client       *http.Client
	pollInterval time.Duration
}

func NewGemini(cfg *config.GeneratorConfig, logger *zap.Logger) *Gemini {
	pollInterval, err := time.ParseDuration(cfg.PollInterval)
	if err != nil || pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}

	tr := &http.Transport{
		IdleConnTimeout:       120 * time.Second,
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		TLSHandshakeTimeout:   20 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
	}
	return &Gemini{
		config:       cfg,
		logger:       logger,
		pollInterval: pollInterval,
		client: &http.Client{
			Transport: tr,
			Timeout:   120 * time.Second,
		},
	}
}

type (
	generateContentResponse struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	predictResponse struct {
		Predictions []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		} `json:"predictions"`
	}

	operationResponse struct {
		Name  string `json:"name"`
		Done  bool   `json:"done"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Response struct {
			GenerateVideoResponse struct {
				GeneratedSamples []struct {
					Video struct {
						URI string `json:"uri"`
					} `json:"video"`
				} `json:"generatedSamples"`
			} `json:"generateVideoResponse"`
		} `json:"response"`
	}
)

func (g *Gemini) GenerateText(ctx context.Context, prompt string) (string, error) {
	if g.config.APIKey == "" {
		return "", ErrAPIKeyRequired
	}

	body := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]any{{"text": prompt}}},
		},
		"systemInstruction": map[string]any{
			"parts": []map[string]any{{"text": textSystemInstruction}},
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.config.BaseURL, g.config.TextModel)
	var response generateContentResponse
	if err := g.post(ctx, url, body, &response); err != nil {
		return "", err
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", &ProviderError{Op: "generate text", Message: "empty response from model"}
	}
	return response.Candidates[0].Content.Parts[0].Text, nil
}

func (g *Gemini) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if g.config.APIKey == "" {
		return "", ErrAPIKeyRequired
	}

	body := map[string]any{
		"instances": []map[string]any{
			{"prompt": imagePromptPrefix + prompt},
		},
		"parameters": map[string]any{
			"sampleCount": 1,
			"aspectRatio": "1:1",
		},
	}

	url := fmt.Sprintf("%s/models/%s:predict", g.config.BaseURL, g.config.ImageModel)
	var response predictResponse
	if err := g.post(ctx, url, body, &response); err != nil {
		return "", err
	}

	if len(response.Predictions) == 0 || response.Predictions[0].BytesBase64Encoded == "" {
		return "", &ProviderError{Op: "generate image", Message: "no image in response"}
	}
	mimeType := response.Predictions[0].MimeType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, response.Predictions[0].BytesBase64Encoded), nil
}

func (g *Gemini) GenerateVideo(ctx context.Context, prompt, startImageURL string) (string, error) {
	if g.config.APIKey == "" {
		return "", ErrAPIKeyRequired
	}

	instance := map[string]any{
		"prompt": videoPromptPrefix + prompt,
	}
	if startImageURL != "" {
		instance["image"] = map[string]any{
			"imageUri": startImageURL,
		}
	}
	body := map[string]any{
		"instances": []map[string]any{instance},
		"parameters": map[string]any{
			"sampleCount": 1,
			"resolution":  "720p",
			"aspectRatio": "9:16",
		},
	}

	url := fmt.Sprintf("%s/models/%s:predictLongRunning", g.config.BaseURL, g.config.VideoModel)
	var op operationResponse
	if err := g.post(ctx, url, body, &op); err != nil {
		return "", err
	}

	// Poll the long-running operation until it completes.
	for !op.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.pollInterval):
		}

		opURL := fmt.Sprintf("%s/%s", g.config.BaseURL, op.Name)
		name := op.Name
		op = operationResponse{}
		if err := g.get(ctx, opURL, &op); err != nil {
			return "", err
		}
		if op.Name == "" {
			op.Name = name
		}
	}

	if op.Error != nil {
		return "", &ProviderError{Op: "generate video", Message: op.Error.Message}
	}
	samples := op.Response.GenerateVideoResponse.GeneratedSamples
	if len(samples) == 0 || samples[0].Video.URI == "" {
		return "", &ProviderError{Op: "generate video", Message: "video URI not found in operation response"}
	}
	return samples[0].Video.URI, nil
}

func (g *Gemini) post(ctx context.Context, url string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return g.do(req, out)
}

func (g *Gemini) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return g.do(req, out)
}

func (g *Gemini) do(req *http.Request, out any) error {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return &ProviderError{Op: "call generation api", Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden ||
			strings.Contains(string(body), "API key not valid") ||
			strings.Contains(string(body), "Requested entity was not found.") {
			return ErrAPIKeyInvalid
		}
		g.logger.Warn("Generation API returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)))
		return &ProviderError{
			Op:      "call generation api",
			Message: fmt.Sprintf("status %d: %s", resp.StatusCode, string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
