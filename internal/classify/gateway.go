package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/greenloop/greenloop-backend/pkg/config"
	pkgerrors "github.com/greenloop/greenloop-backend/pkg/errors"
	"github.com/greenloop/greenloop-backend/pkg/resilience"
)

const systemPrompt = `You are a waste identification expert. Analyze the image and identify the type of waste material.

Respond with a JSON object containing:
- wasteType: One of "plastics", "e-waste", "metals", "organic", "sea-waste", "paper", "glass", "textiles", "mixed", "unknown"
- confidence: A percentage between 0-100
- description: A brief description of what you see
- recyclable: boolean indicating if it's recyclable
- estimatedWeight: Rough estimate in kg (e.g., "0.5-2")
- tips: Array of 2-3 recycling tips for this type of waste
- environmentalImpact: Brief statement about environmental impact of recycling this

Return ONLY valid JSON, no markdown formatting.`

const userPrompt = "Analyze this image and identify the waste material type."

// HTTPDoer abstracts HTTP execution so tests can stub the gateway.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Gateway calls an OpenAI-compatible chat completions endpoint to identify
// waste in a photo.
type Gateway struct {
	url        string
	apiKey     string
	model      string
	httpClient HTTPDoer
}

// NewGateway builds a gateway client from config. When no HTTP client is
// supplied, a resilient client with retry and circuit breaking is used.
func NewGateway(cfg config.AIGatewayConfig, httpClient HTTPDoer) (*Gateway, error) {
	if cfg.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ai gateway url required")
	}
	if cfg.Model == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ai gateway model required")
	}
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.ClientConfig{
			Name:    "ai-gateway",
			Timeout: cfg.Timeout,
		})
	}
	return &Gateway{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: httpClient,
	}, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the classification prompt with the image attached and
// returns the model's raw text content.
func (g *Gateway) Complete(ctx context.Context, imageDataURL string) (string, error) {
	payload := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: userPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: imageDataURL}},
			}},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode gateway request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "ai gateway unreachable")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return "", pkgerrors.New(pkgerrors.CodeRateLimit, "ai gateway rate limit exceeded")
	case http.StatusPaymentRequired:
		return "", pkgerrors.New(pkgerrors.CodeQuota, "ai gateway credits depleted")
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", pkgerrors.New(pkgerrors.CodeDependency,
			"ai gateway returned status "+resp.Status+": "+strings.TrimSpace(string(snippet)))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	if len(decoded.Choices) == 0 || decoded.Choices[0].Message.Content == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "empty response from ai gateway")
	}
	return decoded.Choices[0].Message.Content, nil
}
