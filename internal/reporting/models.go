package reporting

// Summary is the dashboard view over the records a principal can list.
type Summary struct {
	TotalCalls int `json:"total_calls"`

	// AverageDurationMinutes averages only the records whose duration label
	// contains a number. DurationSamples is how many that was.
	AverageDurationMinutes int `json:"average_duration_minutes"`
	DurationSamples        int `json:"duration_samples"`

	// PositiveRate is the rounded share of Positive calls, 0..100.
	PositiveRate int `json:"positive_rate"`

	Sentiment SentimentBreakdown `json:"sentiment"`

	ProcessedCalls int `json:"processed_calls"`
}

type SentimentBreakdown struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}
