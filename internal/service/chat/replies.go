package chat

import (
	"errors"
	"fmt"

	"github.com/Domenick1991/bnbchat/internal/domain"
)

const (
	replyDatePrompt   = "I'd be glad to check availability! Please send your dates in the format YYYY-MM-DD to YYYY-MM-DD."
	replyNoPending    = "There is no pending booking to confirm. Send your dates in the format YYYY-MM-DD to YYYY-MM-DD to get a quote."
	replyUnavailable  = "Sorry, those dates are not available. Please try a different range."
	replyBadFormat    = "I couldn't read those dates. Please use the format YYYY-MM-DD to YYYY-MM-DD."
	replyInvalidRange = "Check-out must be after check-in. Please send your dates as YYYY-MM-DD to YYYY-MM-DD."
	replyDefault      = "I'd be happy to help! Could you provide more details?"
)

func quoteReply(r domain.DateRange, nightlyRate, total float64) string {
	return fmt.Sprintf("Good news, %s is available! %d nights x $%.2f = $%.2f. Type 'yes' to confirm your booking.",
		r, r.Nights(), nightlyRate, total)
}

func confirmedReply(b *domain.Booking) string {
	return fmt.Sprintf("Your booking for %s is confirmed (reference #%d). We look forward to hosting you!", b.Range(), b.ID)
}

// replyForError turns business outcomes into guest-facing text. ok is false
// for failures the caller must surface as errors.
func replyForError(err error) (reply string, ok bool) {
	if errors.Is(err, domain.ErrInvalidRange) {
		return replyInvalidRange, true
	}
	switch domain.KindOf(err) {
	case domain.KindInputFormat:
		return replyBadFormat, true
	case domain.KindUnavailable:
		return replyUnavailable, true
	case domain.KindNoPending:
		return replyNoPending, true
	default:
		return "", false
	}
}
