package couple

import (
	"errors"
	"fmt"
	"strings"
)

type CreateProfileRequest struct {
	Partner1Name         string   `json:"partner1_name"`
	Partner2Name         string   `json:"partner2_name"`
	RelationshipStatus   string   `json:"relationship_status"`
	RelationshipDuration string   `json:"relationship_duration"`
	ChallengeFrequency   Cadence  `json:"challenge_frequency,omitempty"`
	PreferredCategories  []string `json:"preferred_categories,omitempty"`
	ExcludedCategories   []string `json:"excluded_categories,omitempty"`
}

// UpdateProfileRequest carries a partial update; nil fields are left untouched.
type UpdateProfileRequest struct {
	Partner1Name         *string   `json:"partner1_name,omitempty"`
	Partner2Name         *string   `json:"partner2_name,omitempty"`
	RelationshipStatus   *string   `json:"relationship_status,omitempty"`
	RelationshipDuration *string   `json:"relationship_duration,omitempty"`
	ChallengeFrequency   *Cadence  `json:"challenge_frequency,omitempty"`
	PreferredCategories  *[]string `json:"preferred_categories,omitempty"`
	ExcludedCategories   *[]string `json:"excluded_categories,omitempty"`
}

var ErrInvalidProfile = errors.New("invalid profile")

// Validate normalizes the request in place. knownCategory reports whether a
// category name exists in the challenge catalog.
func (r *CreateProfileRequest) Validate(knownCategory func(string) bool) error {
	r.Partner1Name = strings.TrimSpace(r.Partner1Name)
	r.Partner2Name = strings.TrimSpace(r.Partner2Name)
	r.RelationshipStatus = strings.TrimSpace(r.RelationshipStatus)
	r.RelationshipDuration = strings.TrimSpace(r.RelationshipDuration)

	if r.Partner1Name == "" || r.Partner2Name == "" {
		return fmt.Errorf("%w: both partner names are required", ErrInvalidProfile)
	}
	if r.ChallengeFrequency == "" {
		r.ChallengeFrequency = CadenceDaily
	}
	if !r.ChallengeFrequency.Valid() {
		return fmt.Errorf("%w: unknown challenge frequency %q", ErrInvalidProfile, r.ChallengeFrequency)
	}

	var err error
	if r.PreferredCategories, err = cleanCategories(r.PreferredCategories, knownCategory); err != nil {
		return err
	}
	if r.ExcludedCategories, err = cleanCategories(r.ExcludedCategories, knownCategory); err != nil {
		return err
	}
	return nil
}

// Apply validates the update and merges it into p.
func (r *UpdateProfileRequest) Apply(p *Profile, knownCategory func(string) bool) error {
	merged := CreateProfileRequest{
		Partner1Name:         p.Partner1Name,
		Partner2Name:         p.Partner2Name,
		RelationshipStatus:   p.RelationshipStatus,
		RelationshipDuration: p.RelationshipDuration,
		ChallengeFrequency:   p.ChallengeFrequency,
		PreferredCategories:  p.PreferredCategories,
		ExcludedCategories:   p.ExcludedCategories,
	}
	if r.Partner1Name != nil {
		merged.Partner1Name = *r.Partner1Name
	}
	if r.Partner2Name != nil {
		merged.Partner2Name = *r.Partner2Name
	}
	if r.RelationshipStatus != nil {
		merged.RelationshipStatus = *r.RelationshipStatus
	}
	if r.RelationshipDuration != nil {
		merged.RelationshipDuration = *r.RelationshipDuration
	}
	if r.ChallengeFrequency != nil {
		merged.ChallengeFrequency = *r.ChallengeFrequency
	}
	if r.PreferredCategories != nil {
		merged.PreferredCategories = *r.PreferredCategories
	}
	if r.ExcludedCategories != nil {
		merged.ExcludedCategories = *r.ExcludedCategories
	}
	if err := merged.Validate(knownCategory); err != nil {
		return err
	}

	p.Partner1Name = merged.Partner1Name
	p.Partner2Name = merged.Partner2Name
	p.RelationshipStatus = merged.RelationshipStatus
	p.RelationshipDuration = merged.RelationshipDuration
	p.ChallengeFrequency = merged.ChallengeFrequency
	p.PreferredCategories = merged.PreferredCategories
	p.ExcludedCategories = merged.ExcludedCategories
	return nil
}

func cleanCategories(in []string, known func(string) bool) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		if known != nil && !known(c) {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidProfile, c)
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}
