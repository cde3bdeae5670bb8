package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sparkAPI/internal/store"
)

func TestGetArticleRelatedContent(t *testing.T) {
	f := newFixture(t, nil)
	id := f.createCouple(t, nil)
	ctx := context.Background()

	article := f.catalog.Articles()[0]
	detail, err := f.content.GetArticle(ctx, id, article.ID)
	require.NoError(t, err)
	assert.Equal(t, article.ID, detail.Article.ID)
	assert.LessOrEqual(t, len(detail.RelatedArticles), maxRelatedArticles)
	assert.LessOrEqual(t, len(detail.RelatedChallenges), maxRelatedChallenges)
	for _, a := range detail.RelatedArticles {
		assert.NotEqual(t, article.ID, a.ID)
		assert.Equal(t, article.Category, a.Category)
	}

	// Viewing twice records one entry.
	_, err = f.content.GetArticle(ctx, id, article.ID)
	require.NoError(t, err)
	viewed, err := f.store.Viewed(ctx, store.KindArticle, id)
	require.NoError(t, err)
	assert.Len(t, viewed, 1)

	_, err = f.content.GetArticle(ctx, id, "missing")
	assert.ErrorIs(t, err, ErrContentNotFound)
}

func TestGetProductRelatedContent(t *testing.T) {
	f := newFixture(t, nil)
	id := f.createCouple(t, nil)
	ctx := context.Background()

	product := f.catalog.Products()[0]
	detail, err := f.content.GetProduct(ctx, id, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, detail.Product.ID)
	assert.LessOrEqual(t, len(detail.RelatedProducts), maxRelatedProducts)
	for _, p := range detail.RelatedProducts {
		assert.NotEqual(t, product.ID, p.ID)
		assert.Equal(t, product.Category, p.Category)
	}

	viewed, err := f.store.Viewed(ctx, store.KindProduct, id)
	require.NoError(t, err)
	assert.Len(t, viewed, 1)
}

func TestContentWithoutProfileRecordsNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	product := f.catalog.Products()[0]
	_, err := f.content.GetProduct(ctx, uuid.Nil, product.ID)
	require.NoError(t, err)

	_, err = f.content.GetProduct(ctx, uuid.New(), product.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestListContentByCategory(t *testing.T) {
	f := newFixture(t, nil)

	all := f.content.Articles("")
	require.NotEmpty(t, all)
	for _, a := range f.content.Articles(all[0].Category) {
		assert.Equal(t, all[0].Category, a.Category)
	}
	assert.Empty(t, f.content.Products("Nothing Here"))
	assert.Len(t, f.content.Products(""), len(f.catalog.Products()))
}
