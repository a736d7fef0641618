package chat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/bnbchat/config"
	"github.com/Domenick1991/bnbchat/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	systemPrompt = "You are a professional assistant for a boutique BnB website. Answer clearly and concisely."

	defaultModel        = openai.GPT4oMini
	defaultTimeout      = 30 * time.Second
	defaultHistoryLimit = 40
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LiveEngine forwards the session transcript to an OpenAI-compatible
// completion service and records the reply.
type LiveEngine struct {
	client       chatClient
	sessions     TranscriptStore
	model        string
	temperature  float32
	timeout      time.Duration
	historyLimit int
	logger       *zap.Logger
}

func NewLiveEngine(client chatClient, sessions TranscriptStore, cfg config.ChatConfig, logger *zap.Logger) (*LiveEngine, error) {
	if client == nil {
		return nil, errors.New("chat: completion client cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &LiveEngine{
		client:       client,
		sessions:     sessions,
		model:        cfg.Model,
		temperature:  cfg.Temperature,
		timeout:      cfg.CompletionTimeout(),
		historyLimit: cfg.HistoryLimit,
		logger:       logger,
	}
	if e.model == "" {
		e.model = defaultModel
	}
	if e.timeout <= 0 {
		e.timeout = defaultTimeout
	}
	if e.historyLimit <= 0 {
		e.historyLimit = defaultHistoryLimit
	}
	return e, nil
}

// GenerateResponse holds the session lock for the whole turn. The transcript
// is only written after a successful completion.
func (e *LiveEngine) GenerateResponse(ctx context.Context, sessionID, message string) (string, error) {
	unlock, err := e.sessions.Lock(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	history, err := e.sessions.Transcript(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	if len(history) == 0 {
		history = []domain.Message{{Role: domain.RoleSystem, Content: systemPrompt}}
	}
	history = append(history, domain.Message{Role: domain.RoleUser, Content: message})

	reply, err := e.complete(ctx, history)
	if err != nil {
		e.logger.Error("chat completion failed",
			zap.String("session_id", sessionID),
			zap.Bool("retryable", domain.IsRetryable(err)),
			zap.Error(err),
		)
		return "", err
	}

	history = append(history, domain.Message{Role: domain.RoleAssistant, Content: reply})
	history = trimHistory(history, e.historyLimit)
	if err := e.sessions.SetTranscript(ctx, sessionID, history); err != nil {
		e.logger.Warn("failed to persist transcript", zap.String("session_id", sessionID), zap.Error(err))
	}
	return reply, nil
}

func (e *LiveEngine) complete(ctx context.Context, history []domain.Message) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	temperature := e.temperature
	if temperature == 0 {
		// A zero temperature is dropped from the request body by the client.
		temperature = math.SmallestNonzeroFloat32
	}
	req := openai.ChatCompletionRequest{
		Model:       e.model,
		Messages:    toOpenAIMessages(history),
		Temperature: temperature,
	}

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(callCtx, req)
	e.logger.Debug("chat completion finished",
		zap.String("model", e.model),
		zap.Int("messages", len(req.Messages)),
		zap.Duration("latency", time.Since(start)),
	)
	if err != nil {
		return "", upstreamError(err)
	}
	if len(resp.Choices) == 0 {
		return "", &domain.Error{Kind: domain.KindUpstream, Op: "chat completion", Err: errors.New("no choices returned")}
	}
	return resp.Choices[0].Message.Content, nil
}

// upstreamError tags completion failures; timeouts, throttling, 5xx and
// network errors are retryable.
func upstreamError(err error) error {
	retryable := false

	var (
		apiErr *openai.APIError
		reqErr *openai.RequestError
		netErr net.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		retryable = true
	case errors.As(err, &apiErr):
		retryable = retryableStatus(apiErr.HTTPStatusCode)
	case errors.As(err, &reqErr):
		retryable = retryableStatus(reqErr.HTTPStatusCode)
	case errors.As(err, &netErr):
		retryable = true
	}

	return &domain.Error{Kind: domain.KindUpstream, Op: "chat completion", Retryable: retryable, Err: err}
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func toOpenAIMessages(history []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// trimHistory keeps the system instruction plus the most recent messages so
// the transcript never exceeds limit entries.
func trimHistory(history []domain.Message, limit int) []domain.Message {
	if limit <= 0 || len(history) <= limit {
		return history
	}
	if history[0].Role != domain.RoleSystem {
		return history[len(history)-limit:]
	}

	result := make([]domain.Message, 0, limit)
	result = append(result, history[0])
	if limit == 1 {
		return result
	}
	start := len(history) - (limit - 1)
	if start < 1 {
		start = 1
	}
	return append(result, history[start:]...)
}

var _ Engine = (*LiveEngine)(nil)
