package services

import (
	"strings"
	"time"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/couple"
	"sparkAPI/internal/progress"
)

// ChallengeView is a challenge ready for display to one couple.
type ChallengeView struct {
	ID          string          `json:"id"`
	Category    string          `json:"category"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Difficulty  string          `json:"difficulty"`
	Source      progress.Source `json:"source"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// DisplayDifficulty maps stored difficulty to the label shown to couples.
func DisplayDifficulty(d catalog.Difficulty) string {
	switch strings.ToLower(string(d)) {
	case "easy":
		return "Easy"
	case "hard":
		return "Challenging"
	default:
		return "Medium"
	}
}

func Personalize(text string, p *couple.Profile) string {
	return strings.NewReplacer("{partner1}", p.Partner1Name, "{partner2}", p.Partner2Name).Replace(text)
}

func newChallengeView(cc progress.CurrentChallenge, p *couple.Profile) *ChallengeView {
	ch := cc.Challenge
	return &ChallengeView{
		ID:          ch.ID,
		Category:    ch.Category,
		Title:       Personalize(ch.Title, p),
		Description: Personalize(ch.Description, p),
		Difficulty:  DisplayDifficulty(ch.Difficulty),
		Source:      cc.Source,
		GeneratedAt: cc.GeneratedAt,
	}
}

type ProgressView struct {
	AlreadyCompleted bool              `json:"already_completed"`
	Progress         progress.Progress `json:"progress"`
	NewBadges        []string          `json:"new_badges"`
	Badges           []progress.Badge  `json:"badges"`
	NextChallenge    *ChallengeView    `json:"next_challenge,omitempty"`
}

type ProgressExport struct {
	Profile             *couple.Profile               `json:"profile"`
	Progress            progress.Progress             `json:"progress"`
	CompletedChallenges []progress.CompletedChallenge `json:"completed_challenges"`
	Badges              []progress.Badge              `json:"badges"`
	CurrentChallenge    *progress.CurrentChallenge    `json:"current_challenge"`
	ViewedArticles      []progress.ViewedContent      `json:"viewed_articles"`
	ViewedProducts      []progress.ViewedContent      `json:"viewed_products"`
	ExportDate          time.Time                     `json:"export_date"`
}
