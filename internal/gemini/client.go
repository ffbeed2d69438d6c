// Package gemini 는 Google Gemini 로 점괘 텍스트와 이미지를 생성하는 대체 백엔드다.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
)

// ErrInvalidModel 는 모델명이 비어 있을 때 반환된다.
var ErrInvalidModel = errors.New("invalid model")

// Client 는 Gemini 호출을 담당한다.
type Client struct {
	oracle     config.OracleConfig
	gemini     config.GeminiConfig
	httpClient *http.Client
	baseURL    string

	mu     sync.Mutex
	client *genai.Client
}

var (
	_ llm.TextCompleter  = (*Client)(nil)
	_ llm.ImageGenerator = (*Client)(nil)
)

// NewClient 는 Gemini 클라이언트를 생성한다. genai 클라이언트는 첫 호출 때 만든다.
func NewClient(oracle config.OracleConfig, gemini config.GeminiConfig, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(gemini.APIKey) == "" {
		return nil, llm.ErrMissingAPIKey
	}
	if strings.TrimSpace(gemini.TextModel) == "" {
		return nil, ErrInvalidModel
	}
	return &Client{
		oracle:     oracle,
		gemini:     gemini,
		httpClient: httpClient,
	}, nil
}

// Complete 는 JSON 응답 모드로 텍스트를 생성한다.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	model := c.gemini.TextModel
	client, err := c.genaiClient(ctx)
	if err != nil {
		return llm.Completion{Model: model}, err
	}

	response, err := client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{genai.NewContentFromText(req.User, genai.RoleUser)},
		c.textConfig(req.System),
	)
	if err != nil {
		return llm.Completion{Model: model}, fmt.Errorf("generate content: %w", translateError(err))
	}

	completion := llm.Completion{
		Text:  strings.Join(textParts(response), ""),
		Usage: extractUsage(response),
		Model: model,
	}
	if strings.TrimSpace(completion.Text) == "" {
		return completion, llm.ErrEmptyCompletion
	}
	return completion, nil
}

// Generate 는 이미지 모델을 호출하고 인라인 이미지를 data URL 로 반환한다.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.gemini.ImageModel
	if strings.TrimSpace(model) == "" {
		return "", ErrInvalidModel
	}
	client, err := c.genaiClient(ctx)
	if err != nil {
		return "", err
	}

	response, err := client.Models.GenerateContent(
		ctx,
		model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseModalities: []string{"IMAGE"}},
	)
	if err != nil {
		return "", fmt.Errorf("generate image: %w", translateError(err))
	}

	url, ok := inlineImageURL(response)
	if !ok {
		return "", llm.ErrNoImage
	}
	return url, nil
}

func (c *Client) genaiClient(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:     c.gemini.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	client, err := genai.NewClient(context.WithoutCancel(ctx), cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c.client = client
	return client, nil
}

func (c *Client) textConfig(systemPrompt string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(c.oracle.Temperature)),
		TopP:             genai.Ptr(float32(c.oracle.TopP)),
		MaxOutputTokens:  int32(c.oracle.MaxTokens),
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	return cfg
}

func firstParts(response *genai.GenerateContentResponse) []*genai.Part {
	if response == nil || len(response.Candidates) == 0 {
		return nil
	}
	content := response.Candidates[0].Content
	if content == nil {
		return nil
	}
	return content.Parts
}

// textParts 는 사고(thought) 파트를 제외한 응답 텍스트를 모은다.
func textParts(response *genai.GenerateContentResponse) []string {
	parts := firstParts(response)
	texts := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == nil || part.Text == "" || part.Thought {
			continue
		}
		texts = append(texts, part.Text)
	}
	return texts
}

func inlineImageURL(response *genai.GenerateContentResponse) (string, bool) {
	for _, part := range firstParts(response) {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mimeType := part.InlineData.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), true
	}
	return "", false
}

func extractUsage(response *genai.GenerateContentResponse) llm.Usage {
	if response == nil || response.UsageMetadata == nil {
		return llm.Usage{}
	}
	usage := response.UsageMetadata
	return llm.Usage{
		InputTokens:     int(usage.PromptTokenCount),
		OutputTokens:    int(usage.CandidatesTokenCount) + int(usage.ThoughtsTokenCount),
		TotalTokens:     int(usage.TotalTokenCount),
		ReasoningTokens: int(usage.ThoughtsTokenCount),
		CachedTokens:    int(usage.CachedContentTokenCount),
	}
}

// translateError 는 genai HTTP 오류를 StatusError 로 바꾼다.
func translateError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code != 0 {
		return &llm.StatusError{Code: apiErr.Code, Body: apiErr.Message}
	}
	return err
}
