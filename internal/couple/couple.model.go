package couple

import (
	"time"

	"github.com/google/uuid"
)

type Cadence string

const (
	CadenceDaily    Cadence = "daily"
	CadenceWeekly   Cadence = "weekly"
	CadenceBiweekly Cadence = "biweekly"
)

func (c Cadence) Valid() bool {
	switch c {
	case CadenceDaily, CadenceWeekly, CadenceBiweekly:
		return true
	}
	return false
}

type Profile struct {
	ID                   uuid.UUID `json:"id"`
	OwnerID              string    `json:"-"`
	Partner1Name         string    `json:"partner1_name"`
	Partner2Name         string    `json:"partner2_name"`
	RelationshipStatus   string    `json:"relationship_status"`
	RelationshipDuration string    `json:"relationship_duration"`
	ChallengeFrequency   Cadence   `json:"challenge_frequency"`
	PreferredCategories  []string  `json:"preferred_categories"`
	ExcludedCategories   []string  `json:"excluded_categories"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// IsExcluded reports whether category is in the excluded set. Exclusion always
// wins over preference.
func (p *Profile) IsExcluded(category string) bool {
	for _, c := range p.ExcludedCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Context is the part of a profile handed to the external generator. Cache
// fingerprints use only its status and duration.
type Context struct {
	Partner1Name         string
	Partner2Name         string
	RelationshipStatus   string
	RelationshipDuration string
}

func (p *Profile) Context() Context {
	return Context{
		Partner1Name:         p.Partner1Name,
		Partner2Name:         p.Partner2Name,
		RelationshipStatus:   p.RelationshipStatus,
		RelationshipDuration: p.RelationshipDuration,
	}
}
