package models

// GORM models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// JSONValue stores an arbitrary JSON object in a jsonb column.
type JSONValue map[string]interface{}

func (v JSONValue) Value() (driver.Value, error) {
	if v == nil {
		return "{}", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (v *JSONValue) Scan(value interface{}) error {
	if value == nil {
		*v = JSONValue{}
		return nil
	}

	switch data := value.(type) {
	case string:
		return json.Unmarshal([]byte(data), v)
	case []byte:
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("cannot scan %T into JSONValue", value)
	}
}

// Page is one CMS content unit. Content is an HTML string which may embed an
// image sentinel marker followed by newline-delimited JSON placement records.
// Paths of translated pages carry a two-letter language prefix (e.g. /en/bar).
type Page struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Title      string    `json:"title" gorm:"not null"`
	Content    string    `json:"content"`
	Path       string    `json:"path" gorm:"uniqueIndex;not null"`
	ImageURL   string    `json:"image_url"`
	Icon       string    `json:"icon"`
	IsSubmenu  bool      `json:"is_submenu"`
	ParentPath string    `json:"parent_path"`
	Published  bool      `json:"published"`
	IsParent   bool      `json:"is_parent"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// MenuIcon is the denormalized menu projection of a Page. It is written in
// lockstep with its Page so menu traversal never loads full page payloads.
type MenuIcon struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	Path       string    `json:"path" gorm:"uniqueIndex;not null"`
	Label      string    `json:"label" gorm:"not null"`
	Icon       string    `json:"icon"`
	BgColor    string    `json:"bg_color"`
	ParentPath string    `json:"parent_path"`
	IsSubmenu  bool      `json:"is_submenu"`
	Published  bool      `json:"published"`
	IsParent   bool      `json:"is_parent"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// KnowledgeChunk is one retrievable unit for the chatbot: cleaned page text
// plus its embedding. The whole table is regenerated on every rebuild.
type KnowledgeChunk struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	PageID    uuid.UUID       `json:"page_id" gorm:"type:uuid"`
	Title     string          `json:"title"`
	Content   string          `json:"content" gorm:"not null"`
	Path      string          `json:"path"`
	Embedding pgvector.Vector `json:"-" gorm:"type:vector(1536)"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// KnowledgeMatch is one similarity-search hit.
type KnowledgeMatch struct {
	ID         uint      `json:"id"`
	PageID     uuid.UUID `json:"page_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Path       string    `json:"path"`
	Similarity float64   `json:"similarity"`
}

// SiteSetting is one row of the generic key -> JSON settings store.
type SiteSetting struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Key       string    `json:"key" gorm:"column:key;uniqueIndex;not null"`
	Value     JSONValue `json:"value" gorm:"type:jsonb"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HeaderSetting is the singleton header configuration row.
type HeaderSetting struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	LogoURL           string    `json:"logo_url"`
	HeaderColor       string    `json:"header_color"`
	EstablishmentName string    `json:"establishment_name"`
	NameAlignment     string    `json:"establishment_name_alignment"`
	NameColor         string    `json:"establishment_name_color"`
	LogoPosition      string    `json:"logo_position"`
	LogoSize          string    `json:"logo_size"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Conversation is one logged chatbot exchange, kept for admin review. The
// corrected response overrides the original in analytics only; it never
// changes what the visitor was shown.
type Conversation struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	SessionID         string    `json:"session_id"`
	Language          string    `json:"language"`
	UserMessage       string    `json:"user_message" gorm:"not null"`
	BotResponse       string    `json:"bot_response"`
	Helpful           *bool     `json:"helpful"`
	CorrectedResponse string    `json:"corrected_response"`
	CreatedAt         time.Time `json:"created_at"`
}

// SystemHealth records a service health check result.
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('healthy','degraded','unhealthy')"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"default:NOW()"`
}

// ChatbotConfig is the typed view of the "chatbot" site_settings entry.
type ChatbotConfig struct {
	Enabled         bool              `json:"enabled"`
	BotName         string            `json:"bot_name"`
	WelcomeMessages map[string]string `json:"welcome_messages"`
	Color           string            `json:"color"`
	Position        string            `json:"position"`
	Icon            string            `json:"icon"`
}

// Repository interfaces

type PageRepository interface {
	// Create and Update write the Page and its MenuIcon in one transaction.
	Create(page *Page, icon *MenuIcon) error
	Update(page *Page, icon *MenuIcon) error
	GetByID(id uuid.UUID) (*Page, error)
	GetByPath(path string) (*Page, error)
	ExistsByPath(path string) (bool, error)
	List(publishedOnly bool) ([]Page, error)
	// GetSourcePages returns published pages without a language prefix,
	// ordered by path so workflows iterate deterministically.
	GetSourcePages() ([]Page, error)
	// DeleteCascade removes the page at path, its language-prefixed
	// counterparts and every matching menu icon. Returns pages removed.
	DeleteCascade(path string) (int64, error)
}

type MenuIconRepository interface {
	GetMenu(language, parentPath string) ([]MenuIcon, error)
	GetAll() ([]MenuIcon, error)
}

type SettingRepository interface {
	Get(key string) (*SiteSetting, error)
	Set(key string, value JSONValue) error
	GetHeader() (*HeaderSetting, error)
	UpdateHeader(header *HeaderSetting) error
}

type KnowledgeRepository interface {
	// EnsureSchema provisions the pgvector extension, chunk table, index and
	// similarity-search function if any of them are missing.
	EnsureSchema() error
	// ReplaceAll deletes every existing chunk and inserts the given set in
	// one transaction (full-rebuild semantics, never incremental).
	ReplaceAll(chunks []KnowledgeChunk) error
	Search(embedding []float32, limit int, threshold float64) ([]KnowledgeMatch, error)
	Count() (int64, error)
}

type ConversationRepository interface {
	Create(conversation *Conversation) error
	GetRecent(limit int) ([]Conversation, error)
	SetHelpful(id uint, helpful bool) error
	SetCorrection(id uint, corrected string) error
}

type SystemHealthRepository interface {
	UpdateServiceHealth(serviceName, status string, responseTime int, errorMsg string) error
	GetAllServicesHealth() ([]SystemHealth, error)
}

// TableName methods for custom table names
func (Page) TableName() string           { return "custom_pages" }
func (MenuIcon) TableName() string       { return "menu_icons" }
func (KnowledgeChunk) TableName() string { return "chatbot_knowledge" }
func (SiteSetting) TableName() string    { return "site_settings" }
func (HeaderSetting) TableName() string  { return "header_settings" }
func (Conversation) TableName() string   { return "chatbot_conversations" }
func (SystemHealth) TableName() string   { return "system_health" }

// Model validation methods

func (p *Page) Validate() error {
	if p.Title == "" {
		return fmt.Errorf("page title is required")
	}
	if p.Path == "" {
		return fmt.Errorf("page path is required")
	}
	if p.Path[0] != '/' {
		return fmt.Errorf("page path must start with '/': %s", p.Path)
	}
	return nil
}

func (m *MenuIcon) Validate() error {
	if m.Path == "" {
		return fmt.Errorf("menu icon path is required")
	}
	if m.Label == "" {
		return fmt.Errorf("menu icon label is required")
	}
	return nil
}

func (c *Conversation) Validate() error {
	if c.UserMessage == "" {
		return fmt.Errorf("user message is required")
	}
	return nil
}

// GORM hooks

func (p *Page) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return p.Validate()
}

func (p *Page) BeforeUpdate(tx *gorm.DB) error {
	return p.Validate()
}

func (m *MenuIcon) BeforeCreate(tx *gorm.DB) error {
	return m.Validate()
}

func (c *Conversation) BeforeCreate(tx *gorm.DB) error {
	return c.Validate()
}
