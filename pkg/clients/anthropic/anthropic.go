package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	model          = "claude-3-haiku-20240307"
	maxTokens      = 400
)

const systemPrompt = `You write short WhatsApp alerts for pig farmers watching for African Swine Fever.
Use the facts given and nothing else. Do not diagnose; tell the farmer what to check and who to call.
At most six lines, plain text, no markdown.`

// AlertBrief carries the facts an alert is drafted from.
type AlertBrief struct {
	PigName         string
	Category        string
	Temperature     float64
	TotalScore      int
	RiskLevel       string
	Symptoms        []string
	Recommendations []string
}

// Client drafts farmer-facing alert text.
type Client interface {
	DraftAlert(ctx context.Context, brief AlertBrief) (string, error)
}

type anthropicClient struct {
	httpClient *resty.Client
}

// NewClient creates a configured Anthropic client.
func NewClient(apiKey string) Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewClientWithBaseURL is NewClient against a custom endpoint.
func NewClientWithBaseURL(apiKey, baseURL string) Client {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetHeader("x-api-key", apiKey).
		SetHeader("anthropic-version", apiVersion).
		SetHeader("content-type", "application/json").
		SetTimeout(15 * time.Second)

	return &anthropicClient{httpClient: client}
}

type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messageResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (c *anthropicClient) DraftAlert(ctx context.Context, brief AlertBrief) (string, error) {
	reqBody := messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: brief.prompt()}},
	}

	var respBody messageResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&respBody).
		Post("/v1/messages")
	if err != nil {
		return "", fmt.Errorf("anthropic api call: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("anthropic api error: status=%d body=%s", resp.StatusCode(), resp.String())
	}
	if len(respBody.Content) == 0 {
		return "", errors.New("empty response from ai")
	}

	text := strings.TrimSpace(respBody.Content[0].Text)
	if text == "" {
		return "", errors.New("empty response from ai")
	}
	return text, nil
}

func (b AlertBrief) prompt() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Pig: %s (%s)\n", b.PigName, b.Category)
	fmt.Fprintf(&sb, "Latest temperature: %.1f C\n", b.Temperature)
	fmt.Fprintf(&sb, "Risk: %s, score %d/100\n", b.RiskLevel, b.TotalScore)
	if len(b.Symptoms) > 0 {
		fmt.Fprintf(&sb, "Symptoms seen: %s\n", strings.Join(b.Symptoms, ", "))
	}
	if len(b.Recommendations) > 0 {
		fmt.Fprintf(&sb, "Recommended actions: %s\n", strings.Join(b.Recommendations, "; "))
	}
	return sb.String()
}
