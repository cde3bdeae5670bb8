package generation

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"sparkAPI/internal/catalog"
)

var ErrMalformedResponse = errors.New("malformed generator response")

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// extractJSON strips a fenced code block if the model wrapped its answer in one.
func extractJSON(text string) string {
	if i := strings.Index(text, "```json"); i >= 0 {
		rest := text[i+len("```json"):]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
	}
	return strings.TrimSpace(text)
}

func parseChallenge(text, category string) (catalog.Challenge, error) {
	var ch catalog.Challenge
	if err := json.Unmarshal([]byte(extractJSON(text)), &ch); err != nil {
		return catalog.Challenge{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return normalize(ch, category)
}

func parseBatch(text string, categories []string) ([]catalog.Challenge, error) {
	var raw []catalog.Challenge
	if err := json.Unmarshal([]byte(extractJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	allowed := make(map[string]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}

	out := make([]catalog.Challenge, 0, len(raw))
	for _, ch := range raw {
		if len(allowed) > 0 && !allowed[ch.Category] {
			continue
		}
		n, err := normalize(ch, "")
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable challenges in batch", ErrMalformedResponse)
	}
	return out, nil
}

// normalize enforces the fields every generated challenge must carry.
func normalize(ch catalog.Challenge, category string) (catalog.Challenge, error) {
	ch.Title = strings.TrimSpace(ch.Title)
	ch.Description = strings.TrimSpace(ch.Description)
	if ch.Title == "" || ch.Description == "" {
		return catalog.Challenge{}, fmt.Errorf("%w: missing title or description", ErrMalformedResponse)
	}

	if category != "" {
		ch.Category = category
	}
	ch.Category = strings.TrimSpace(ch.Category)
	if ch.Category == "" {
		return catalog.Challenge{}, fmt.Errorf("%w: missing category", ErrMalformedResponse)
	}

	ch.Difficulty = catalog.NormalizeDifficulty(string(ch.Difficulty))

	ch.ID = newGeneratedID(ch.Category)
	return ch, nil
}

// newGeneratedID ignores whatever id the model proposed; models reuse the
// example id from the prompt, which would make unrelated challenges collide
// in a couple's completion history.
func newGeneratedID(category string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(category), "_"), "_")
	return catalog.GeneratedPrefix + slug + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}
