package knowledge

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"

	"github.com/24021959/guidebook-backend/internal/llm"
	"github.com/24021959/guidebook-backend/internal/models"
)

// Progress is invoked after each page is processed.
type Progress func(done, total int, title string)

// BuildResult summarizes a knowledge base rebuild.
type BuildResult struct {
	Pages   int    `json:"pages"`
	Chunks  int    `json:"chunks"`
	Errors  int    `json:"errors"`
	Message string `json:"message"`
}

// BuilderConfig carries the dependencies of a Builder.
type BuilderConfig struct {
	Pages     models.PageRepository
	Knowledge models.KnowledgeRepository
	Embedder  llm.Embedder
	ChunkSize int
	Logger    *logrus.Logger
}

// Builder turns published pages into embedded knowledge chunks for the
// chatbot. A rebuild always replaces the whole store so deleted or edited
// pages never leave stale chunks behind.
type Builder struct {
	pages     models.PageRepository
	knowledge models.KnowledgeRepository
	embedder  llm.Embedder
	chunkSize int
	logger    *logrus.Logger
}

func NewBuilder(cfg BuilderConfig) *Builder {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 4000
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Builder{
		pages:     cfg.Pages,
		knowledge: cfg.Knowledge,
		embedder:  cfg.Embedder,
		chunkSize: cfg.ChunkSize,
		logger:    cfg.Logger,
	}
}

// Rebuild regenerates the knowledge base from every published page.
func (b *Builder) Rebuild(ctx context.Context, progress Progress) (*BuildResult, error) {
	pages, err := b.pages.List(true)
	if err != nil {
		return nil, fmt.Errorf("loading published pages: %w", err)
	}
	return b.RebuildPages(ctx, pages, progress)
}

// RebuildPages regenerates the knowledge base from an explicit page list.
// Pages whose chunks fail to embed are skipped and counted; the store is
// replaced as long as at least one chunk succeeded.
func (b *Builder) RebuildPages(ctx context.Context, pages []models.Page, progress Progress) (*BuildResult, error) {
	if err := b.knowledge.EnsureSchema(); err != nil {
		return nil, fmt.Errorf("preparing knowledge schema: %w", err)
	}

	result := &BuildResult{Pages: len(pages)}
	var collected []models.KnowledgeChunk

	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// The serialized image placements are layout data and stay out of
		// the knowledge base.
		body, _ := models.SplitContent(page.Content)

		for _, text := range Chunk(page.Title, body, b.chunkSize) {
			vectors, err := b.embedder.CreateEmbedding(ctx, []string{text})
			if err != nil {
				result.Errors++
				b.logger.WithFields(logrus.Fields{
					"page":  page.Path,
					"error": err.Error(),
				}).Warn("Failed to embed knowledge chunk, skipping")
				continue
			}
			collected = append(collected, models.KnowledgeChunk{
				PageID:    page.ID,
				Title:     page.Title,
				Content:   text,
				Path:      page.Path,
				Embedding: pgvector.NewVector(vectors[0]),
			})
		}

		if progress != nil {
			progress(i+1, len(pages), page.Title)
		}
	}

	result.Chunks = len(collected)
	result.Message = fmt.Sprintf("Knowledge base rebuilt: %d chunks from %d pages (%d errors)",
		result.Chunks, result.Pages, result.Errors)

	if len(collected) == 0 && result.Errors > 0 {
		// Keep the previous knowledge base rather than wiping it with nothing.
		return result, fmt.Errorf("no chunks could be embedded (%d errors)", result.Errors)
	}

	if err := b.knowledge.ReplaceAll(collected); err != nil {
		return nil, fmt.Errorf("replacing knowledge base: %w", err)
	}

	b.logger.WithFields(logrus.Fields{
		"pages":  result.Pages,
		"chunks": result.Chunks,
		"errors": result.Errors,
	}).Info("Knowledge base rebuilt")

	return result, nil
}
