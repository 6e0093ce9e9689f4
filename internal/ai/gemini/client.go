// Package gemini wraps the Google GenAI SDK behind the small collaborator
// surfaces the interview service needs: chat generation with history,
// text embedding, audio transcription and speech synthesis.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Subhodip-Mishra/Deephireai-1/internal/logger"
)

const (
	defaultChatModel       = "gemini-2.0-flash"
	defaultEmbedModel      = "text-embedding-004"
	defaultSpeechModel     = "gemini-2.5-flash-preview-tts"
	defaultTranscribeModel = "gemini-2.0-flash"
	defaultVoice           = "Charon"
	defaultMaxLogLength    = 200

	retryBaseDelay = 500 * time.Millisecond
)

// sleep is a seam for tests; retries otherwise back off for real.
var sleep = time.Sleep

// Config carries the model selection for every collaborator built from one
// client. Zero values fall back to the defaults above.
type Config struct {
	APIKey          string
	ChatModel       string
	EmbedModel      string
	SpeechModel     string
	TranscribeModel string
	Voice           string
	MaxRetries      int
	MaxLogLength    int
}

func (c *Config) withDefaults() {
	if strings.TrimSpace(c.ChatModel) == "" {
		c.ChatModel = defaultChatModel
	}
	if strings.TrimSpace(c.EmbedModel) == "" {
		c.EmbedModel = defaultEmbedModel
	}
	if strings.TrimSpace(c.SpeechModel) == "" {
		c.SpeechModel = defaultSpeechModel
	}
	if strings.TrimSpace(c.TranscribeModel) == "" {
		c.TranscribeModel = defaultTranscribeModel
	}
	if strings.TrimSpace(c.Voice) == "" {
		c.Voice = defaultVoice
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 1
	}
	if c.MaxLogLength <= 0 {
		c.MaxLogLength = defaultMaxLogLength
	}
}

// chatSession and chatCreator isolate the SDK chat machinery so tests can
// substitute fakes.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatCreator interface {
	Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)
}

type modelCaller interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

type sdkChats struct {
	client *genai.Client
}

func (c sdkChats) Create(ctx context.Context, model string, config *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
	return c.client.Chats.Create(ctx, model, config, history)
}

type sdkModels struct {
	client *genai.Client
}

func (m sdkModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	return m.client.Models.GenerateContent(ctx, model, contents, config)
}

func (m sdkModels) EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error) {
	return m.client.Models.EmbedContent(ctx, model, contents, config)
}

// Client bundles the Gemini-backed collaborators.
type Client struct {
	chats  chatCreator
	models modelCaller
	cfg    Config
	logger *zap.Logger
}

// New creates a Gemini client for the API backend.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg.withDefaults()

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		chats:  sdkChats{client: sdk},
		models: sdkModels{client: sdk},
		cfg:    cfg,
		logger: logger.WithProvider(log, "gemini", cfg.ChatModel),
	}, nil
}

// Converse sends the user message to the chat model with the given system
// instruction and prior history, returning the flattened text reply.
// Retryable API failures (quota, server errors) are retried with backoff.
func (c *Client) Converse(ctx context.Context, system string, history []*genai.Content, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("message must not be empty")
	}

	config := &genai.GenerateContentConfig{}
	if strings.TrimSpace(system) != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	c.logger.Debug("gemini chat request",
		zap.Int("history_len", len(history)),
		zap.Int("message_length", utf8.RuneCountInString(message)),
		zap.String("message_preview", logger.TruncateForLog(message, c.cfg.MaxLogLength)),
	)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		chat, err := c.chats.Create(ctx, c.cfg.ChatModel, config, history)
		if err != nil {
			return "", fmt.Errorf("create chat session: %w", err)
		}

		resp, err := chat.SendMessage(ctx, genai.Part{Text: message})
		if err == nil {
			text := flattenResponse(resp)
			if text == "" {
				return "", errors.New("gemini api returned empty response")
			}
			c.logger.Debug("gemini chat response",
				zap.String("response_preview", logger.TruncateForLog(text, c.cfg.MaxLogLength)),
			)
			return text, nil
		}

		lastErr = err
		if !retryable(err) || attempt == c.cfg.MaxRetries {
			break
		}

		delay := retryBaseDelay * time.Duration(attempt)
		c.logger.Warn("gemini request failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := waitFor(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("generate content: %w", lastErr)
}

// Model reports the configured chat model name.
func (c *Client) Model() string {
	return c.cfg.ChatModel
}

func retryable(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
	}
	return false
}

// waitFor sleeps for d unless the context ends first.
func waitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		sleep(d)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// flattenResponse joins the text parts of every candidate, skipping empty
// ones, the same way the rest of the system expects a single reply string.
func flattenResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
