package salescalls

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Input is the untrusted field set a client submits for create and update.
// It mirrors the dashboard form. OwnerID is accepted only so that it can be
// dropped; it never reaches the store.
type Input struct {
	OwnerID       string      `json:"user_id" form:"user_id"`
	OccurredOn    string      `json:"date" form:"date"`
	OccurredAt    string      `json:"time" form:"time"`
	CustomerName  string      `json:"customer" form:"customer"`
	DurationLabel string      `json:"duration" form:"duration"`
	Sentiment     string      `json:"sentiment" form:"sentiment"`
	Progress      RawProgress `json:"ai_processing_progress" form:"ai_processing_progress"`
	Status        string      `json:"status" form:"status"`
}

// RawProgress is the progress value as submitted: a form string or a JSON number.
type RawProgress string

// UnmarshalJSON keeps strings for CoerceProgress and folds numbers to their
// clamped integer value. Any other JSON value counts as absent.
func (p *RawProgress) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = RawProgress(s)
		return nil
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		*p = ""
		return nil
	}
	*p = RawProgress(strconv.Itoa(clampProgress(f)))
	return nil
}

func clampProgress(f float64) int {
	switch {
	case math.IsNaN(f), f <= 0:
		return 0
	case f >= 100:
		return 100
	default:
		return int(f)
	}
}

// Fields is a validated, owner-scoped write. Build it with Scope.
type Fields struct {
	OwnerID       string    `validate:"required"`
	OccurredOn    string    `validate:"required,datetime=2006-01-02"`
	OccurredAt    string    `validate:"required,datetime=15:04"`
	CustomerName  string    `validate:"required,max=200"`
	DurationLabel string    `validate:"max=64"`
	Sentiment     Sentiment `validate:"required,oneof=Positive Negative Neutral"`
	Progress      int       `validate:"gte=0,lte=100"`
	Status        Status    `validate:"required,oneof=Complete Processing"`
}

// Scope turns untrusted input into a write owned by callerID.
// in.OwnerID is never read: the owner always comes from callerID.
func Scope(in Input, callerID string) Fields {
	return Fields{
		OwnerID:       callerID,
		OccurredOn:    strings.TrimSpace(in.OccurredOn),
		OccurredAt:    normalizeClock(strings.TrimSpace(in.OccurredAt)),
		CustomerName:  strings.TrimSpace(in.CustomerName),
		DurationLabel: strings.TrimSpace(in.DurationLabel),
		Sentiment:     Sentiment(strings.TrimSpace(in.Sentiment)),
		Progress:      CoerceProgress(string(in.Progress)),
		Status:        Status(strings.TrimSpace(in.Status)),
	}
}

// normalizeClock drops seconds from HH:MM:SS, the form a time input with a
// step attribute submits. Anything else passes through for validation.
func normalizeClock(s string) string {
	if t, err := time.Parse("15:04:05", s); err == nil {
		return t.Format("15:04")
	}
	return s
}

func (f Fields) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}
	return nil
}

// CoerceProgress parses the leading integer of raw and clamps it to [0, 100].
// Absent or unparsable input yields 0.
func CoerceProgress(raw string) int {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// overflow: only the sign matters once clamped
		if s[0] == '-' {
			return 0
		}
		return 100
	}
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	default:
		return n
	}
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
