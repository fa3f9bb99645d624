package salescalls

import (
	"strconv"
	"time"
	"unicode"

	"sales-saas/internal/directory"
)

// Record is a logged sales call.
//
// Tenancy invariant: OwnerID is set once from the authenticated caller and is
// the only isolation key. It is never taken from client input.
type Record struct {
	ID      string `json:"id" db:"id"`
	OwnerID string `json:"user_id" db:"user_id"`

	// OccurredOn is the calendar date (YYYY-MM-DD), OccurredAt the time of day (HH:MM).
	OccurredOn string `json:"date" db:"date"`
	OccurredAt string `json:"time" db:"time"`

	CustomerName string `json:"customer" db:"customer"`

	// DurationLabel is free text such as "45 min".
	DurationLabel string `json:"duration" db:"duration"`

	Sentiment Sentiment `json:"sentiment" db:"sentiment"`

	// Progress is the AI processing percentage in [0, 100].
	Progress int `json:"ai_processing_progress" db:"ai_processing_progress"`

	Status Status `json:"status" db:"status"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Owner is attached for privileged listings only. Not persisted.
	Owner *directory.Identity `json:"owner,omitempty" db:"-"`
}

type Sentiment string

const (
	SentimentPositive Sentiment = "Positive"
	SentimentNegative Sentiment = "Negative"
	SentimentNeutral  Sentiment = "Neutral"
)

type Status string

const (
	StatusComplete   Status = "Complete"
	StatusProcessing Status = "Processing"
)

// DurationMinutes extracts the first run of digits from DurationLabel.
// "45 min" yields 45. Labels without digits report ok=false.
func (r Record) DurationMinutes() (int, bool) {
	start := -1
	for i, ch := range r.DurationLabel {
		if unicode.IsDigit(ch) && ch < unicode.MaxASCII {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return atoiOK(r.DurationLabel[start:i])
		}
	}
	if start >= 0 {
		return atoiOK(r.DurationLabel[start:])
	}
	return 0, false
}

func atoiOK(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
