package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sparkAPI/internal/catalog"
	"sparkAPI/internal/progress"
	"sparkAPI/internal/store"
)

const (
	maxRelatedArticles   = 4
	maxRelatedChallenges = 3
	maxRelatedProducts   = 4
)

type ContentService struct {
	store   store.ViewedRepository
	catalog *catalog.Catalog
	now     func() time.Time
}

func NewContentService(st store.ViewedRepository, cat *catalog.Catalog) *ContentService {
	return &ContentService{store: st, catalog: cat, now: time.Now}
}

type ArticleDetail struct {
	Article           catalog.Article     `json:"article"`
	RelatedArticles   []catalog.Article   `json:"related_articles"`
	RelatedChallenges []catalog.Challenge `json:"related_challenges"`
}

type ProductDetail struct {
	Product         catalog.Product   `json:"product"`
	RelatedProducts []catalog.Product `json:"related_products"`
}

func (s *ContentService) Articles(category string) []catalog.Article {
	if category == "" {
		return s.catalog.Articles()
	}
	return s.catalog.ArticlesByCategory(category)
}

func (s *ContentService) Products(category string) []catalog.Product {
	if category == "" {
		return s.catalog.Products()
	}
	return s.catalog.ProductsByCategory(category)
}

// GetArticle returns the article with related content and records the view
// when profileID is set.
func (s *ContentService) GetArticle(ctx context.Context, profileID uuid.UUID, id string) (*ArticleDetail, error) {
	article, ok := s.catalog.ArticleByID(id)
	if !ok {
		return nil, ErrContentNotFound
	}
	if err := s.markViewed(ctx, store.KindArticle, profileID, id); err != nil {
		return nil, err
	}

	related := make([]catalog.Article, 0, maxRelatedArticles)
	for _, a := range s.catalog.ArticlesByCategory(article.Category) {
		if a.ID == id {
			continue
		}
		if len(related) == maxRelatedArticles {
			break
		}
		related = append(related, a)
	}

	challenges := s.catalog.ChallengesByCategory(article.Category)
	if len(challenges) > maxRelatedChallenges {
		challenges = challenges[:maxRelatedChallenges]
	}

	return &ArticleDetail{Article: article, RelatedArticles: related, RelatedChallenges: challenges}, nil
}

func (s *ContentService) GetProduct(ctx context.Context, profileID uuid.UUID, id string) (*ProductDetail, error) {
	product, ok := s.catalog.ProductByID(id)
	if !ok {
		return nil, ErrContentNotFound
	}
	if err := s.markViewed(ctx, store.KindProduct, profileID, id); err != nil {
		return nil, err
	}

	related := make([]catalog.Product, 0, maxRelatedProducts)
	for _, p := range s.catalog.ProductsByCategory(product.Category) {
		if p.ID == id {
			continue
		}
		if len(related) == maxRelatedProducts {
			break
		}
		related = append(related, p)
	}

	return &ProductDetail{Product: product, RelatedProducts: related}, nil
}

func (s *ContentService) markViewed(ctx context.Context, kind store.ContentKind, profileID uuid.UUID, id string) error {
	if profileID == uuid.Nil {
		return nil
	}
	err := s.store.MarkViewed(ctx, kind, progress.ViewedContent{
		ProfileID: profileID,
		ContentID: id,
		ViewedAt:  s.now(),
	})
	if err != nil {
		return profileErr(err, fmt.Sprintf("mark %s viewed", kind))
	}
	return nil
}
