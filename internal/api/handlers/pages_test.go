package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/24021959/guidebook-backend/internal/database"
	"github.com/24021959/guidebook-backend/internal/models"
	"github.com/24021959/guidebook-backend/internal/repository"
)

type fakePageRepo struct {
	pages map[string]*models.Page
	icons map[string]*models.MenuIcon
}

func newFakePageRepo() *fakePageRepo {
	return &fakePageRepo{
		pages: map[string]*models.Page{},
		icons: map[string]*models.MenuIcon{},
	}
}

func (f *fakePageRepo) Create(page *models.Page, icon *models.MenuIcon) error {
	if page.ID == uuid.Nil {
		page.ID = uuid.New()
	}
	f.pages[page.Path] = page
	f.icons[icon.Path] = icon
	return nil
}

func (f *fakePageRepo) Update(page *models.Page, icon *models.MenuIcon) error {
	f.pages[page.Path] = page
	f.icons[icon.Path] = icon
	return nil
}

func (f *fakePageRepo) GetByID(id uuid.UUID) (*models.Page, error) {
	for _, p := range f.pages {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePageRepo) GetByPath(path string) (*models.Page, error) {
	if p, ok := f.pages[path]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakePageRepo) ExistsByPath(path string) (bool, error) {
	_, ok := f.pages[path]
	return ok, nil
}

func (f *fakePageRepo) List(publishedOnly bool) ([]models.Page, error) {
	var out []models.Page
	for _, p := range f.pages {
		if publishedOnly && !p.Published {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePageRepo) GetSourcePages() ([]models.Page, error) { return nil, nil }

func (f *fakePageRepo) DeleteCascade(path string) (int64, error) {
	var removed int64
	paths := []string{path}
	for _, lang := range models.TargetLanguages {
		paths = append(paths, models.TranslatedPath(lang, path))
	}
	for _, p := range paths {
		if _, ok := f.pages[p]; ok {
			delete(f.pages, p)
			delete(f.icons, p)
			removed++
		}
	}
	return removed, nil
}

type fakeIconRepo struct {
	icons []models.MenuIcon
	err   error
}

func (f *fakeIconRepo) GetMenu(string, string) ([]models.MenuIcon, error) {
	return f.icons, f.err
}
func (f *fakeIconRepo) GetAll() ([]models.MenuIcon, error) { return f.icons, f.err }

// deadCache points at an unreachable redis so every cache lookup misses,
// exercising the database fallback path.
func deadCache() *database.Cache {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	return database.NewCache(client, testLogger())
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func setupPagesRouter(pages models.PageRepository, icons models.MenuIconRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	repos := &repository.RepositoryManager{Pages: pages, MenuIcons: icons}
	handler := NewPagesHandler(repos, deadCache(), testLogger())

	router := gin.New()
	router.POST("/api/pages", handler.HandleCreatePage)
	router.PUT("/api/pages/:id", handler.HandleUpdatePage)
	router.GET("/api/pages", handler.HandleListPages)
	router.GET("/api/page", handler.HandleGetPage)
	router.DELETE("/api/page", handler.HandleDeletePage)
	router.GET("/api/menu", handler.HandleGetMenu)
	return router
}

func performJSON(t *testing.T, router *gin.Engine, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreatePage(t *testing.T) {
	repo := newFakePageRepo()
	router := setupPagesRouter(repo, &fakeIconRepo{})

	rec := performJSON(t, router, http.MethodPost, "/api/pages", models.PageRequest{
		Title:     "Ristorante",
		Content:   "<p>Cucina ligure</p>",
		Path:      "ristorante", // missing slash is normalized
		BgColor:   "#aa3311",
		Published: true,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	page, ok := repo.pages["/ristorante"]
	require.True(t, ok)
	assert.Equal(t, "Ristorante", page.Title)
	assert.NotEqual(t, uuid.Nil, page.ID)

	icon, ok := repo.icons["/ristorante"]
	require.True(t, ok)
	assert.Equal(t, "Ristorante", icon.Label)
	assert.Equal(t, "#aa3311", icon.BgColor)
}

func TestHandleCreatePageConflict(t *testing.T) {
	repo := newFakePageRepo()
	repo.Create(&models.Page{Title: "Spa", Path: "/spa"}, &models.MenuIcon{Path: "/spa", Label: "Spa"})
	router := setupPagesRouter(repo, &fakeIconRepo{})

	rec := performJSON(t, router, http.MethodPost, "/api/pages", models.PageRequest{
		Title: "Spa", Path: "/spa",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleCreatePageValidation(t *testing.T) {
	router := setupPagesRouter(newFakePageRepo(), &fakeIconRepo{})

	rec := performJSON(t, router, http.MethodPost, "/api/pages", map[string]string{"content": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetPage(t *testing.T) {
	repo := newFakePageRepo()
	repo.Create(&models.Page{Title: "Spa", Path: "/spa", Published: true}, &models.MenuIcon{Path: "/spa", Label: "Spa"})
	router := setupPagesRouter(repo, &fakeIconRepo{})

	rec := performJSON(t, router, http.MethodGet, "/api/page?path=/spa", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool        `json:"success"`
		Data    models.Page `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Spa", resp.Data.Title)

	rec = performJSON(t, router, http.MethodGet, "/api/page?path=/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = performJSON(t, router, http.MethodGet, "/api/page", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleDeletePageCascade(t *testing.T) {
	repo := newFakePageRepo()
	repo.Create(&models.Page{Title: "Bar", Path: "/bar"}, &models.MenuIcon{Path: "/bar", Label: "Bar"})
	repo.Create(&models.Page{Title: "Bar", Path: "/en/bar"}, &models.MenuIcon{Path: "/en/bar", Label: "Bar"})
	router := setupPagesRouter(repo, &fakeIconRepo{})

	rec := performJSON(t, router, http.MethodDelete, "/api/page?path=/bar", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, repo.pages)

	rec = performJSON(t, router, http.MethodDelete, "/api/page?path=/bar", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetMenu(t *testing.T) {
	icons := &fakeIconRepo{icons: []models.MenuIcon{{Path: "/spa", Label: "Spa", Published: true}}}
	router := setupPagesRouter(newFakePageRepo(), icons)

	rec := performJSON(t, router, http.MethodGet, "/api/menu?lang=it", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = performJSON(t, router, http.MethodGet, "/api/menu?lang=zz", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetMenuRepoError(t *testing.T) {
	router := setupPagesRouter(newFakePageRepo(), &fakeIconRepo{err: errors.New("db down")})

	rec := performJSON(t, router, http.MethodGet, "/api/menu?lang=en", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
