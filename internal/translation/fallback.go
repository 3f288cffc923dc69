package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// FallbackTranslator is the best-effort public translation backend used when
// the LLM translation fails. No guarantees on markup preservation.
type FallbackTranslator interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// FallbackClient calls the MyMemory public translation API.
type FallbackClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewFallbackClient(baseURL string, logger *logrus.Logger) *FallbackClient {
	return &FallbackClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger: logger,
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus int `json:"responseStatus"`
}

func (c *FallbackClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	endpoint := fmt.Sprintf("%s/get?q=%s&langpair=%s",
		c.baseURL,
		url.QueryEscape(text),
		url.QueryEscape(sourceLang+"|"+targetLang))

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"target": targetLang,
		"length": len(text),
	}).Debug("Calling fallback translation API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fallback translation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fallback API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed myMemoryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if parsed.ResponseStatus != 200 || parsed.ResponseData.TranslatedText == "" {
		return "", fmt.Errorf("fallback API returned status %d with empty translation", parsed.ResponseStatus)
	}

	return parsed.ResponseData.TranslatedText, nil
}
