package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/bnbchat/config"
	"github.com/Domenick1991/bnbchat/internal/domain"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Engine produces the reply for one chat turn. Business outcomes are always
// returned as replies; an error means an upstream or internal failure.
type Engine interface {
	GenerateResponse(ctx context.Context, sessionID, message string) (string, error)
}

// Locker serialises turns for a single session id.
type Locker interface {
	Lock(ctx context.Context, sessionID string) (unlock func(), err error)
}

type PendingStore interface {
	Locker
	Pending(ctx context.Context, sessionID string) (*domain.DateRange, error)
	SetPending(ctx context.Context, sessionID string, r domain.DateRange) error
	ClearPending(ctx context.Context, sessionID string) error
}

type TranscriptStore interface {
	Locker
	Transcript(ctx context.Context, sessionID string) ([]domain.Message, error)
	SetTranscript(ctx context.Context, sessionID string, messages []domain.Message) error
}

// SessionStore is satisfied by both session table backends.
type SessionStore interface {
	PendingStore
	TranscriptStore
}

type Bookings interface {
	IsAvailable(ctx context.Context, r domain.DateRange) (bool, error)
	CreateBooking(ctx context.Context, r domain.DateRange) (*domain.Booking, error)
}

type Quoter interface {
	Quote(r domain.DateRange) (float64, error)
	NightlyRate() float64
}

var ErrMissingAPIKey = errors.New("OPENAI_API_KEY not set in environment")

// NewEngine picks the engine once from configuration. Live mode without a
// credential is a construction error.
func NewEngine(cfg config.ChatConfig, sessions SessionStore, bookings Bookings, quoter Quoter, logger *zap.Logger) (Engine, error) {
	if cfg.DevMode {
		return NewRuleEngine(sessions, bookings, quoter, logger), nil
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return NewLiveEngine(openai.NewClientWithConfig(clientCfg), sessions, cfg, logger)
}

func normalize(message string) string {
	return strings.ToLower(strings.TrimSpace(message))
}
