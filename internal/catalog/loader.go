package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var embedded embed.FS

type challengeFile struct {
	Challenges []Challenge `yaml:"challenges"`
}

type articleFile struct {
	Articles []Article `yaml:"articles"`
}

type productFile struct {
	Products []Product `yaml:"products"`
}

// Default loads the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Load(embedded, "data")
}

// Load reads challenges.yaml, articles.yaml and products.yaml from dir.
func Load(fsys fs.FS, dir string) (*Catalog, error) {
	var cf challengeFile
	if err := decode(fsys, dir+"/challenges.yaml", &cf); err != nil {
		return nil, err
	}
	var af articleFile
	if err := decode(fsys, dir+"/articles.yaml", &af); err != nil {
		return nil, err
	}
	var pf productFile
	if err := decode(fsys, dir+"/products.yaml", &pf); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(cf.Challenges))
	for i := range cf.Challenges {
		ch := &cf.Challenges[i]
		if ch.ID == "" || ch.Category == "" {
			return nil, fmt.Errorf("challenge %d: id and category are required", i)
		}
		if seen[ch.ID] {
			return nil, fmt.Errorf("duplicate challenge id %q", ch.ID)
		}
		seen[ch.ID] = true
		ch.Difficulty = NormalizeDifficulty(string(ch.Difficulty))
	}

	return New(cf.Challenges, af.Articles, pf.Products), nil
}

func decode(fsys fs.FS, path string, out any) error {
	raw, err := fs.ReadFile(fsys, path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func NormalizeDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}
