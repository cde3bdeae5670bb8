package catalog

import "strings"

const DefaultCategory = "Communication Boosters"

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Challenge struct {
	ID          string     `json:"id" yaml:"id"`
	Category    string     `json:"category" yaml:"category"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty"`
}

// IsGenerated reports whether the challenge came from the external generator
// rather than the static catalog.
func (c Challenge) IsGenerated() bool {
	return strings.HasPrefix(c.ID, GeneratedPrefix)
}

const GeneratedPrefix = "ai_"

type RelatedProduct struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Coupon      string `json:"coupon" yaml:"coupon"`
}

type Article struct {
	ID             string         `json:"id" yaml:"id"`
	Category       string         `json:"category" yaml:"category"`
	Title          string         `json:"title" yaml:"title"`
	ReadingTime    int            `json:"reading_time" yaml:"reading_time"`
	Content        string         `json:"content" yaml:"content"`
	RelatedProduct RelatedProduct `json:"related_product" yaml:"related_product"`
}

type Product struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	Category          string   `json:"category" yaml:"category"`
	Description       string   `json:"description" yaml:"description"`
	Price             string   `json:"price" yaml:"price"`
	Coupon            string   `json:"coupon" yaml:"coupon"`
	Benefits          []string `json:"benefits" yaml:"benefits"`
	RelatedChallenges []string `json:"related_challenges" yaml:"related_challenges"`
}

// Catalog is a read-only, in-memory view over the static content. All lookups
// preserve catalog order and return copies of the backing slices.
type Catalog struct {
	challenges []Challenge
	articles   []Article
	products   []Product

	challengeByID map[string]int
	articleByID   map[string]int
	productByID   map[string]int
}

func New(challenges []Challenge, articles []Article, products []Product) *Catalog {
	c := &Catalog{
		challenges:    append([]Challenge(nil), challenges...),
		articles:      append([]Article(nil), articles...),
		products:      append([]Product(nil), products...),
		challengeByID: make(map[string]int, len(challenges)),
		articleByID:   make(map[string]int, len(articles)),
		productByID:   make(map[string]int, len(products)),
	}
	for i, ch := range c.challenges {
		c.challengeByID[ch.ID] = i
	}
	for i, a := range c.articles {
		c.articleByID[a.ID] = i
	}
	for i, p := range c.products {
		c.productByID[p.ID] = i
	}
	return c
}

func (c *Catalog) ChallengeByID(id string) (Challenge, bool) {
	i, ok := c.challengeByID[id]
	if !ok {
		return Challenge{}, false
	}
	return c.challenges[i], true
}

func (c *Catalog) ChallengesByCategory(category string) []Challenge {
	var out []Challenge
	for _, ch := range c.challenges {
		if ch.Category == category {
			out = append(out, ch)
		}
	}
	return out
}

func (c *Catalog) Challenges() []Challenge {
	return append([]Challenge(nil), c.challenges...)
}

// ChallengeCategories returns the distinct challenge categories in the order
// they first appear in the catalog.
func (c *Catalog) ChallengeCategories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ch := range c.challenges {
		if !seen[ch.Category] {
			seen[ch.Category] = true
			out = append(out, ch.Category)
		}
	}
	return out
}

func (c *Catalog) HasChallengeCategory(category string) bool {
	for _, ch := range c.challenges {
		if ch.Category == category {
			return true
		}
	}
	return false
}

func (c *Catalog) ArticleByID(id string) (Article, bool) {
	i, ok := c.articleByID[id]
	if !ok {
		return Article{}, false
	}
	return c.articles[i], true
}

func (c *Catalog) ArticlesByCategory(category string) []Article {
	var out []Article
	for _, a := range c.articles {
		if a.Category == category {
			out = append(out, a)
		}
	}
	return out
}

func (c *Catalog) Articles() []Article {
	return append([]Article(nil), c.articles...)
}

func (c *Catalog) ProductByID(id string) (Product, bool) {
	i, ok := c.productByID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i], true
}

func (c *Catalog) ProductsByCategory(category string) []Product {
	var out []Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (c *Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}
