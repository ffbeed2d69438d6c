// Package openai 는 OpenAI 호환 API(기본: BigModel GLM)로 점괘 텍스트와 이미지를 생성한다.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/config"
	"github.com/park285/llm-kakao-bots/fortune-server-go/internal/llm"
)

// Client 는 OpenAI 호환 chat/images 엔드포인트 클라이언트다.
type Client struct {
	api         *goopenai.Client
	textModel   string
	imageModel  string
	temperature float32
	topP        float32
	maxTokens   int
}

var (
	_ llm.TextCompleter  = (*Client)(nil)
	_ llm.ImageGenerator = (*Client)(nil)
)

// NewClient 는 설정으로 클라이언트를 만든다. httpClient 가 nil 이면 기본 클라이언트를 쓴다.
func NewClient(cfg config.OracleConfig, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, llm.ErrMissingAPIKey
	}

	apiCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		apiCfg.HTTPClient = httpClient
	}

	return &Client{
		api:         goopenai.NewClientWithConfig(apiCfg),
		textModel:   cfg.TextModel,
		imageModel:  cfg.ImageModel,
		temperature: float32(cfg.Temperature),
		topP:        float32(cfg.TopP),
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Complete 는 system/user 메시지로 chat completion 을 1회 호출한다.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Completion, error) {
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.textModel,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: req.System},
			{Role: goopenai.ChatMessageRoleUser, Content: req.User},
		},
		Temperature: c.temperature,
		TopP:        c.topP,
		MaxTokens:   c.maxTokens,
		Stream:      false,
	})
	if err != nil {
		return llm.Completion{Model: c.textModel}, fmt.Errorf("chat completion: %w", translateError(err))
	}

	completion := llm.Completion{
		Usage: extractUsage(resp.Usage),
		Model: c.textModel,
	}
	if resp.Model != "" {
		completion.Model = resp.Model
	}
	if len(resp.Choices) > 0 {
		completion.Text = resp.Choices[0].Message.Content
	}
	if strings.TrimSpace(completion.Text) == "" {
		return completion, llm.ErrEmptyCompletion
	}
	return completion, nil
}

// Generate 는 이미지 생성 엔드포인트를 호출하고 data[0].url 을 반환한다.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateImage(ctx, goopenai.ImageRequest{
		Model:  c.imageModel,
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("image generation: %w", translateError(err))
	}
	if len(resp.Data) == 0 || strings.TrimSpace(resp.Data[0].URL) == "" {
		return "", llm.ErrNoImage
	}
	return resp.Data[0].URL, nil
}

// translateError 는 go-openai 오류를 StatusError 로 바꾼다. 그 외 오류는 그대로 둔다.
func translateError(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &llm.StatusError{Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &llm.StatusError{Code: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}
	return err
}

func extractUsage(usage goopenai.Usage) llm.Usage {
	result := llm.Usage{
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		TotalTokens:  usage.TotalTokens,
	}
	if usage.CompletionTokensDetails != nil {
		result.ReasoningTokens = usage.CompletionTokensDetails.ReasoningTokens
	}
	if usage.PromptTokensDetails != nil {
		result.CachedTokens = usage.PromptTokensDetails.CachedTokens
	}
	return result
}
