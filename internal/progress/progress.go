package progress

import (
	"math"
	"time"

	"github.com/google/uuid"

	"sparkAPI/internal/catalog"
)

const (
	InitialSparkLevel = 10.0
	SparkStep         = 5.0
	MaxSparkLevel     = 100.0
)

type Progress struct {
	ProfileID      uuid.UUID  `json:"-"`
	Streak         int        `json:"streak"`
	LastCompleted  *time.Time `json:"last_completed"`
	SparkLevel     float64    `json:"spark_level"`
	TotalCompleted int        `json:"total_completed"`
}

func New(profileID uuid.UUID) Progress {
	return Progress{ProfileID: profileID, SparkLevel: InitialSparkLevel}
}

// Complete returns the progress after one newly recorded completion at now.
// The caller guarantees the completion is not a duplicate.
func (p Progress) Complete(now time.Time) Progress {
	next := p
	next.TotalCompleted++
	next.Streak = NextStreak(p.Streak, p.LastCompleted, now)
	t := now
	next.LastCompleted = &t
	next.SparkLevel = ClampSpark(p.SparkLevel + SparkStep)
	return next
}

// NextStreak computes the streak after a completion on now's civil date.
// A same-day completion must be checked before the gap rule, otherwise a
// second completion on one day would reset the streak.
func NextStreak(streak int, last *time.Time, now time.Time) int {
	if last == nil {
		return 1
	}
	switch DaysBetween(*last, now) {
	case 1:
		return streak + 1
	case 0:
		if streak < 1 {
			return 1
		}
		return streak
	default:
		return 1
	}
}

// DaysBetween returns the number of calendar days from a to b, using b's
// location for both dates.
func DaysBetween(a, b time.Time) int {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(math.Round(db.Sub(da).Hours() / 24))
}

func ClampSpark(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > MaxSparkLevel {
		return MaxSparkLevel
	}
	return v
}

type CompletedChallenge struct {
	ProfileID   uuid.UUID `json:"-"`
	ChallengeID string    `json:"challenge_id"`
	Category    string    `json:"category"`
	CompletedAt time.Time `json:"completed_at"`
}

type Source string

const (
	SourceCatalog   Source = "catalog"
	SourceGenerated Source = "generated"
	SourceCache     Source = "cache"
	SourceFallback  Source = "fallback"
)

// CurrentChallenge is the single most recently offered challenge. It is
// overwritten on every selection cycle.
type CurrentChallenge struct {
	ProfileID   uuid.UUID         `json:"-"`
	ChallengeID string            `json:"challenge_id"`
	Category    string            `json:"category"`
	GeneratedAt time.Time         `json:"generated_at"`
	Source      Source            `json:"source"`
	Challenge   catalog.Challenge `json:"challenge"`
}

type ViewedContent struct {
	ProfileID uuid.UUID `json:"-"`
	ContentID string    `json:"content_id"`
	ViewedAt  time.Time `json:"viewed_at"`
}
