package reporting

import (
	"context"
	"errors"
	"math"

	"sales-saas/internal/rbac"
	"sales-saas/internal/salescalls"
)

// Lister is the tenant-scoped read the summary is computed from.
// *salescalls.Service satisfies it.
type Lister interface {
	List(ctx context.Context, p rbac.Principal) ([]salescalls.Record, error)
}

type Service struct {
	calls Lister
}

func NewService(calls Lister) *Service { return &Service{calls: calls} }

// Summary aggregates exactly the records List returns for p, so it never sees
// more than the principal may see.
func (s *Service) Summary(ctx context.Context, p rbac.Principal) (Summary, error) {
	if s.calls == nil {
		return Summary{}, errors.New("reporting: lister not configured")
	}
	recs, err := s.calls.List(ctx, p)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(recs), nil
}

func Summarize(recs []salescalls.Record) Summary {
	var (
		out     Summary
		minutes int
	)
	for _, r := range recs {
		out.TotalCalls++
		if m, ok := r.DurationMinutes(); ok {
			minutes += m
			out.DurationSamples++
		}
		switch r.Sentiment {
		case salescalls.SentimentPositive:
			out.Sentiment.Positive++
		case salescalls.SentimentNegative:
			out.Sentiment.Negative++
		case salescalls.SentimentNeutral:
			out.Sentiment.Neutral++
		}
		if r.Status == salescalls.StatusComplete {
			out.ProcessedCalls++
		}
	}
	if out.DurationSamples > 0 {
		out.AverageDurationMinutes = int(math.Round(float64(minutes) / float64(out.DurationSamples)))
	}
	if out.TotalCalls > 0 {
		out.PositiveRate = int(math.Round(100 * float64(out.Sentiment.Positive) / float64(out.TotalCalls)))
	}
	return out
}
