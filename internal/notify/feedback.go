package notify

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Feedback is one user-submitted comment about a generation run.
type Feedback struct {
	ID        string    `json:"id"`
	JobID     string    `json:"jobId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Sentiment string    `json:"sentiment"`
	CreatedAt time.Time `json:"createdAt"`
}

// FeedbackSummary aggregates the stored feedback for reporting.
type FeedbackSummary struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
	Positive      int     `json:"positive"`
	Negative      int     `json:"negative"`
	Neutral       int     `json:"neutral"`
}

var positiveWords = map[string]bool{
	"good": true, "great": true, "excellent": true, "love": true,
	"perfect": true, "amazing": true, "fast": true, "clean": true,
	"helpful": true, "nice": true,
}

var negativeWords = map[string]bool{
	"bad": true, "broken": true, "slow": true, "wrong": true,
	"error": true, "ugly": true, "confusing": true, "hate": true,
	"useless": true, "crash": true,
}

// FeedbackStore keeps submitted feedback in memory.
type FeedbackStore struct {
	mu      sync.RWMutex
	entries []Feedback
	logger  zerolog.Logger
}

// NewFeedbackStore returns an empty store.
func NewFeedbackStore(logger zerolog.Logger) *FeedbackStore {
	return &FeedbackStore{logger: logger.With().Str("component", "feedback").Logger()}
}

// scoreSentiment classifies a comment by counting known positive and
// negative words. Ties and empty comments are neutral.
func scoreSentiment(comment string) string {
	var pos, neg int
	for _, w := range strings.Fields(strings.ToLower(comment)) {
		w = strings.Trim(w, ".,!?:;\"'()")
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	switch {
	case pos > neg:
		return "positive"
	case neg > pos:
		return "negative"
	default:
		return "neutral"
	}
}

// Submit records feedback, clamping the rating to 1..5 and scoring the
// comment sentiment.
func (fs *FeedbackStore) Submit(jobID, userID string, rating int, comment string) Feedback {
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}

	f := Feedback{
		ID:        uuid.New().String(),
		JobID:     jobID,
		UserID:    userID,
		Rating:    rating,
		Comment:   comment,
		Sentiment: scoreSentiment(comment),
		CreatedAt: time.Now(),
	}

	fs.mu.Lock()
	fs.entries = append(fs.entries, f)
	fs.mu.Unlock()

	fs.logger.Info().
		Str("job_id", jobID).
		Int("rating", rating).
		Str("sentiment", f.Sentiment).
		Msg("feedback submitted")
	return f
}

// ForJob returns the feedback recorded for one generation job.
func (fs *FeedbackStore) ForJob(jobID string) []Feedback {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	var out []Feedback
	for _, f := range fs.entries {
		if f.JobID == jobID {
			out = append(out, f)
		}
	}
	return out
}

// Summary aggregates all stored feedback.
func (fs *FeedbackStore) Summary() FeedbackSummary {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	s := FeedbackSummary{Count: len(fs.entries)}
	if s.Count == 0 {
		return s
	}
	var total int
	for _, f := range fs.entries {
		total += f.Rating
		switch f.Sentiment {
		case "positive":
			s.Positive++
		case "negative":
			s.Negative++
		default:
			s.Neutral++
		}
	}
	s.AverageRating = float64(total) / float64(s.Count)
	return s
}
