package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/24021959/guidebook-backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Cache is the redis-backed snapshot cache for read-mostly content. It is
// never authoritative: misses and redis outages fall through to Postgres.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	HeaderSettingsKey = "settings:header"
	SiteSettingKey    = "settings:site:%s"
	MenuKey           = "menu:%s:%s"
	PageKey           = "page:%s"
)

func (c *Cache) SetHeaderSettings(ctx context.Context, header *models.HeaderSetting, expiration time.Duration) error {
	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header settings: %w", err)
	}
	return c.client.Set(ctx, HeaderSettingsKey, data, expiration).Err()
}

func (c *Cache) GetHeaderSettings(ctx context.Context) (*models.HeaderSetting, error) {
	data, err := c.client.Get(ctx, HeaderSettingsKey).Result()
	if err != nil {
		return nil, err
	}

	var header models.HeaderSetting
	if err := json.Unmarshal([]byte(data), &header); err != nil {
		return nil, err
	}
	return &header, nil
}

func (c *Cache) SetSiteSetting(ctx context.Context, key string, setting *models.SiteSetting, expiration time.Duration) error {
	data, err := json.Marshal(setting)
	if err != nil {
		return fmt.Errorf("failed to marshal site setting: %w", err)
	}
	return c.client.Set(ctx, fmt.Sprintf(SiteSettingKey, key), data, expiration).Err()
}

func (c *Cache) GetSiteSetting(ctx context.Context, key string) (*models.SiteSetting, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(SiteSettingKey, key)).Result()
	if err != nil {
		return nil, err
	}

	var setting models.SiteSetting
	if err := json.Unmarshal([]byte(data), &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}

func (c *Cache) SetMenu(ctx context.Context, language, parentPath string, icons []models.MenuIcon, expiration time.Duration) error {
	data, err := json.Marshal(icons)
	if err != nil {
		return fmt.Errorf("failed to marshal menu: %w", err)
	}
	return c.client.Set(ctx, fmt.Sprintf(MenuKey, language, parentPath), data, expiration).Err()
}

func (c *Cache) GetMenu(ctx context.Context, language, parentPath string) ([]models.MenuIcon, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(MenuKey, language, parentPath)).Result()
	if err != nil {
		return nil, err
	}

	var icons []models.MenuIcon
	err = json.Unmarshal([]byte(data), &icons)
	return icons, err
}

func (c *Cache) SetPage(ctx context.Context, page *models.Page, expiration time.Duration) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("failed to marshal page: %w", err)
	}
	return c.client.Set(ctx, fmt.Sprintf(PageKey, page.Path), data, expiration).Err()
}

func (c *Cache) GetPage(ctx context.Context, path string) (*models.Page, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf(PageKey, path)).Result()
	if err != nil {
		return nil, err
	}

	var page models.Page
	if err := json.Unmarshal([]byte(data), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// InvalidatePage drops the cached page and every menu snapshot. Menu keys are
// language-scoped, so a page write flushes them all rather than guessing
// which menus the page appears in.
func (c *Cache) InvalidatePage(ctx context.Context, path string) error {
	if err := c.client.Del(ctx, fmt.Sprintf(PageKey, path)).Err(); err != nil {
		return err
	}
	return c.invalidatePattern(ctx, "menu:*")
}

func (c *Cache) InvalidateSettings(ctx context.Context) error {
	if err := c.client.Del(ctx, HeaderSettingsKey).Err(); err != nil {
		return err
	}
	return c.invalidatePattern(ctx, "settings:site:*")
}

func (c *Cache) invalidatePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.logger.WithError(err).WithField("key", iter.Val()).Warn("Failed to delete cache key")
		}
	}
	return iter.Err()
}
