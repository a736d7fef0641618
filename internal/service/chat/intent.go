package chat

import "strings"

type Intent int

const (
	IntentOther Intent = iota
	IntentConfirm
	IntentBooking
	IntentDateRange
)

func (i Intent) String() string {
	switch i {
	case IntentConfirm:
		return "confirm"
	case IntentBooking:
		return "booking"
	case IntentDateRange:
		return "date_range"
	default:
		return "other"
	}
}

var confirmWords = map[string]struct{}{
	"yes":     {},
	"confirm": {},
	"proceed": {},
}

// Classify applies the rules in precedence order to a normalized message.
// IntentOther covers both the FAQ lookup and the generic fallback.
func Classify(text string) Intent {
	if _, ok := confirmWords[text]; ok {
		return IntentConfirm
	}
	if strings.Contains(text, "book") || strings.Contains(text, "availability") {
		return IntentBooking
	}
	if strings.Contains(text, "to") && strings.Contains(text, "-") {
		return IntentDateRange
	}
	return IntentOther
}

// splitRange cuts the message on the first "to".
func splitRange(text string) (checkIn, checkOut string) {
	checkIn, checkOut, _ = strings.Cut(text, "to")
	return strings.TrimSpace(checkIn), strings.TrimSpace(checkOut)
}
