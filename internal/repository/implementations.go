package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/24021959/guidebook-backend/internal/models"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PageRepositoryImpl implements PageRepository
type PageRepositoryImpl struct {
	db *gorm.DB
}

func NewPageRepository(db *gorm.DB) models.PageRepository {
	return &PageRepositoryImpl{db: db}
}

// Create inserts the page and its menu icon in one transaction. A page is
// never written without its icon; the menu table mirrors custom_pages on
// every save.
func (r *PageRepositoryImpl) Create(page *models.Page, icon *models.MenuIcon) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(page).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "path"}},
			UpdateAll: true,
		}).Create(icon).Error
	})
}

func (r *PageRepositoryImpl) Update(page *models.Page, icon *models.MenuIcon) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(page).Error; err != nil {
			return err
		}
		icon.UpdatedAt = time.Now()
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "path"}},
			UpdateAll: true,
		}).Create(icon).Error
	})
}

func (r *PageRepositoryImpl) GetByID(id uuid.UUID) (*models.Page, error) {
	var page models.Page
	err := r.db.First(&page, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *PageRepositoryImpl) GetByPath(path string) (*models.Page, error) {
	var page models.Page
	err := r.db.Where("path = ?", path).First(&page).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (r *PageRepositoryImpl) ExistsByPath(path string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Page{}).Where("path = ?", path).Count(&count).Error
	return count > 0, err
}

func (r *PageRepositoryImpl) List(publishedOnly bool) ([]models.Page, error) {
	var pages []models.Page
	query := r.db.Order("path")
	if publishedOnly {
		query = query.Where("published = ?", true)
	}
	err := query.Find(&pages).Error
	return pages, err
}

func (r *PageRepositoryImpl) GetSourcePages() ([]models.Page, error) {
	var pages []models.Page
	err := r.db.Where("published = ?", true).
		Where("path !~ ?", translatedPathPattern()).
		Order("path").
		Find(&pages).Error
	return pages, err
}

// DeleteCascade removes the page, its language-prefixed counterparts and all
// matching menu icons. Only source (unprefixed) paths fan out; deleting a
// translated page removes just that page.
func (r *PageRepositoryImpl) DeleteCascade(path string) (int64, error) {
	paths := []string{path}
	if models.IsSourcePath(path) {
		for _, lang := range models.TargetLanguages {
			paths = append(paths, models.TranslatedPath(lang, path))
		}
	}

	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("path IN ?", paths).Delete(&models.Page{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return tx.Where("path IN ?", paths).Delete(&models.MenuIcon{}).Error
	})
	return deleted, err
}

func translatedPathPattern() string {
	return "^/(" + strings.Join(models.TargetLanguages, "|") + ")/"
}

// MenuIconRepositoryImpl implements MenuIconRepository
type MenuIconRepositoryImpl struct {
	db *gorm.DB
}

func NewMenuIconRepository(db *gorm.DB) models.MenuIconRepository {
	return &MenuIconRepositoryImpl{db: db}
}

// GetMenu returns the published icons for one menu level of one language.
// Source-language menus are the unprefixed paths; translated menus live
// entirely under their /{lang}/ prefix, parent paths included.
func (r *MenuIconRepositoryImpl) GetMenu(language, parentPath string) ([]models.MenuIcon, error) {
	var icons []models.MenuIcon
	query := r.db.Where("published = ?", true).
		Where("parent_path = ?", parentPath).
		Order("path")

	if language == "" || language == models.SourceLanguage {
		query = query.Where("path !~ ?", translatedPathPattern())
	} else if parentPath == "" {
		query = query.Where("path LIKE ?", "/"+language+"/%")
	}

	err := query.Find(&icons).Error
	return icons, err
}

func (r *MenuIconRepositoryImpl) GetAll() ([]models.MenuIcon, error) {
	var icons []models.MenuIcon
	err := r.db.Order("path").Find(&icons).Error
	return icons, err
}

// SettingRepositoryImpl implements SettingRepository
type SettingRepositoryImpl struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) models.SettingRepository {
	return &SettingRepositoryImpl{db: db}
}

func (r *SettingRepositoryImpl) Get(key string) (*models.SiteSetting, error) {
	var setting models.SiteSetting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if err != nil {
		return nil, err
	}
	return &setting, nil
}

func (r *SettingRepositoryImpl) Set(key string, value models.JSONValue) error {
	setting := models.SiteSetting{Key: key, Value: value, UpdatedAt: time.Now()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

func (r *SettingRepositoryImpl) GetHeader() (*models.HeaderSetting, error) {
	var header models.HeaderSetting
	err := r.db.First(&header).Error
	if err != nil {
		return nil, err
	}
	return &header, nil
}

func (r *SettingRepositoryImpl) UpdateHeader(header *models.HeaderSetting) error {
	var existing models.HeaderSetting
	err := r.db.First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(header).Error
	}
	if err != nil {
		return err
	}
	header.ID = existing.ID
	return r.db.Save(header).Error
}

// KnowledgeRepositoryImpl implements KnowledgeRepository
type KnowledgeRepositoryImpl struct {
	db  *gorm.DB
	dim int
}

func NewKnowledgeRepository(db *gorm.DB, embeddingDim int) models.KnowledgeRepository {
	if embeddingDim == 0 {
		embeddingDim = 1536
	}
	return &KnowledgeRepositoryImpl{db: db, dim: embeddingDim}
}

// EnsureSchema provisions everything the knowledge base needs: the pgvector
// extension, the chunk table, an ivfflat cosine index and the similarity
// search function. Every statement is idempotent.
func (r *KnowledgeRepositoryImpl) EnsureSchema() error {
	statements := []string{
		"CREATE EXTENSION IF NOT EXISTS vector",
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS chatbot_knowledge (
				id BIGSERIAL PRIMARY KEY,
				page_id UUID,
				title TEXT,
				content TEXT NOT NULL,
				path TEXT,
				embedding vector(%d),
				created_at TIMESTAMPTZ,
				updated_at TIMESTAMPTZ
			)`, r.dim),
		`CREATE INDEX IF NOT EXISTS chatbot_knowledge_embedding_idx
			ON chatbot_knowledge
			USING ivfflat (embedding vector_cosine_ops)
			WITH (lists = 100)`,
		fmt.Sprintf(`
			CREATE OR REPLACE FUNCTION match_chatbot_knowledge(
				query_embedding vector(%d),
				match_threshold FLOAT,
				match_count INT
			)
			RETURNS TABLE (id BIGINT, page_id UUID, title TEXT, content TEXT, path TEXT, similarity FLOAT)
			LANGUAGE sql STABLE AS $$
				SELECT k.id, k.page_id, k.title, k.content, k.path,
					1 - (k.embedding <=> query_embedding) AS similarity
				FROM chatbot_knowledge k
				WHERE 1 - (k.embedding <=> query_embedding) > match_threshold
				ORDER BY k.embedding <=> query_embedding
				LIMIT match_count
			$$`, r.dim),
	}

	for _, stmt := range statements {
		if err := r.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("knowledge schema provisioning failed: %w", err)
		}
	}
	return nil
}

// ReplaceAll swaps the entire chunk set in one transaction. Rebuilds are
// full, never incremental, so stale chunks can never accumulate.
func (r *KnowledgeRepositoryImpl) ReplaceAll(chunks []models.KnowledgeChunk) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.KnowledgeChunk{}).Error; err != nil {
			return err
		}
		if len(chunks) == 0 {
			return nil
		}
		return tx.CreateInBatches(chunks, 100).Error
	})
}

func (r *KnowledgeRepositoryImpl) Search(embedding []float32, limit int, threshold float64) ([]models.KnowledgeMatch, error) {
	var matches []models.KnowledgeMatch
	err := r.db.Raw(
		"SELECT * FROM match_chatbot_knowledge(?, ?, ?)",
		pgvector.NewVector(embedding), threshold, limit,
	).Scan(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	return matches, nil
}

func (r *KnowledgeRepositoryImpl) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.KnowledgeChunk{}).Count(&count).Error
	return count, err
}

// ConversationRepositoryImpl implements ConversationRepository
type ConversationRepositoryImpl struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) models.ConversationRepository {
	return &ConversationRepositoryImpl{db: db}
}

func (r *ConversationRepositoryImpl) Create(conversation *models.Conversation) error {
	return r.db.Create(conversation).Error
}

func (r *ConversationRepositoryImpl) GetRecent(limit int) ([]models.Conversation, error) {
	var conversations []models.Conversation
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&conversations).Error
	return conversations, err
}

func (r *ConversationRepositoryImpl) SetHelpful(id uint, helpful bool) error {
	return r.db.Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("helpful", helpful).Error
}

func (r *ConversationRepositoryImpl) SetCorrection(id uint, corrected string) error {
	return r.db.Model(&models.Conversation{}).
		Where("id = ?", id).
		Update("corrected_response", corrected).Error
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.Exec(`
		INSERT INTO system_health (service_name, status, response_time_ms, error_message, checked_at)
		VALUES (?, ?, ?, ?, NOW())
	`, serviceName, status, responseTime, errorMsg).Error
}

func (r *SystemHealthRepositoryImpl) GetAllServicesHealth() ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	err := r.db.Raw(`
		SELECT DISTINCT ON (service_name) *
		FROM system_health
		ORDER BY service_name, checked_at DESC
	`).Scan(&health).Error
	return health, err
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	Pages         models.PageRepository
	MenuIcons     models.MenuIconRepository
	Settings      models.SettingRepository
	Knowledge     models.KnowledgeRepository
	Conversations models.ConversationRepository
	SystemHealth  models.SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB, embeddingDim int) *RepositoryManager {
	return &RepositoryManager{
		Pages:         NewPageRepository(db),
		MenuIcons:     NewMenuIconRepository(db),
		Settings:      NewSettingRepository(db),
		Knowledge:     NewKnowledgeRepository(db, embeddingDim),
		Conversations: NewConversationRepository(db),
		SystemHealth:  NewSystemHealthRepository(db),
	}
}
