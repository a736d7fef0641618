package chat

import (
	"context"
	"fmt"

	"github.com/Domenick1991/bnbchat/internal/domain"
	"github.com/Domenick1991/bnbchat/internal/service/faq"
	"go.uber.org/zap"
)

// RuleEngine answers from keyword and date matching without external calls.
// Its only session state is the pending booking.
type RuleEngine struct {
	sessions PendingStore
	bookings Bookings
	quoter   Quoter
	logger   *zap.Logger
}

func NewRuleEngine(sessions PendingStore, bookings Bookings, quoter Quoter, logger *zap.Logger) *RuleEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleEngine{
		sessions: sessions,
		bookings: bookings,
		quoter:   quoter,
		logger:   logger,
	}
}

func (e *RuleEngine) GenerateResponse(ctx context.Context, sessionID, message string) (string, error) {
	text := normalize(message)

	unlock, err := e.sessions.Lock(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("lock session: %w", err)
	}
	defer unlock()

	intent := Classify(text)
	reply, err := e.respond(ctx, sessionID, intent, text)
	if err == nil {
		return reply, nil
	}
	if reply, ok := replyForError(err); ok {
		e.logger.Debug("turn resolved with corrective reply",
			zap.String("session_id", sessionID),
			zap.Stringer("intent", intent),
			zap.Stringer("kind", domain.KindOf(err)),
		)
		return reply, nil
	}

	e.logger.Error("rule engine turn failed",
		zap.String("session_id", sessionID),
		zap.Stringer("intent", intent),
		zap.Error(err),
	)
	return "", err
}

func (e *RuleEngine) respond(ctx context.Context, sessionID string, intent Intent, text string) (string, error) {
	switch intent {
	case IntentConfirm:
		return e.confirm(ctx, sessionID)
	case IntentBooking:
		return replyDatePrompt, nil
	case IntentDateRange:
		return e.quote(ctx, sessionID, text)
	}

	if answer, ok := faq.Match(text); ok {
		return answer, nil
	}
	return replyDefault, nil
}

func (e *RuleEngine) confirm(ctx context.Context, sessionID string) (string, error) {
	pending, err := e.sessions.Pending(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load pending booking: %w", err)
	}
	if pending == nil {
		return "", domain.ErrNoPendingBooking
	}

	booking, err := e.bookings.CreateBooking(ctx, *pending)
	if err != nil {
		// The range was taken after the quote; the quote is stale either way.
		if domain.KindOf(err) == domain.KindUnavailable {
			if clearErr := e.sessions.ClearPending(ctx, sessionID); clearErr != nil {
				e.logger.Warn("failed to clear stale pending booking", zap.String("session_id", sessionID), zap.Error(clearErr))
			}
		}
		return "", err
	}

	if err := e.sessions.ClearPending(ctx, sessionID); err != nil {
		e.logger.Warn("failed to clear pending booking", zap.String("session_id", sessionID), zap.Error(err))
	}
	return confirmedReply(booking), nil
}

// quote validates the range, checks availability and stores it as the
// session's pending booking. Unavailable or malformed ranges leave any
// existing pending booking untouched.
func (e *RuleEngine) quote(ctx context.Context, sessionID, text string) (string, error) {
	checkIn, checkOut := splitRange(text)
	rng, err := domain.ParseDateRange(checkIn, checkOut)
	if err != nil {
		return "", err
	}

	available, err := e.bookings.IsAvailable(ctx, rng)
	if err != nil {
		return "", err
	}
	if !available {
		return "", domain.ErrUnavailable
	}

	total, err := e.quoter.Quote(rng)
	if err != nil {
		return "", err
	}
	if err := e.sessions.SetPending(ctx, sessionID, rng); err != nil {
		return "", fmt.Errorf("store pending booking: %w", err)
	}
	return quoteReply(rng, e.quoter.NightlyRate(), total), nil
}

var _ Engine = (*RuleEngine)(nil)
