package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/24021959/guidebook-backend/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/time/rate"
)

var languageNames = map[string]string{
	"it": "Italian",
	"en": "English",
	"fr": "French",
	"de": "German",
	"es": "Spanish",
}

// EngineConfig configures a translation engine.
type EngineConfig struct {
	SourceLanguage string
	ChunkThreshold int     // characters before page content is split on blank lines
	RateLimit      float64 // LLM calls per second
	ChatModel      llms.Model
	Fallback       FallbackTranslator
	Logger         *logrus.Logger
}

// Engine translates source-language text through an LLM with a public API
// fallback and a transparent cache. A translation failure never propagates:
// the worst outcome is the original text handed back unchanged.
type Engine struct {
	source    string
	threshold int
	llm       llms.Model
	fallback  FallbackTranslator
	cache     *Cache
	limiter   *rate.Limiter
	logger    *logrus.Logger
}

func NewEngine(config EngineConfig) *Engine {
	if config.SourceLanguage == "" {
		config.SourceLanguage = models.SourceLanguage
	}
	if config.ChunkThreshold == 0 {
		config.ChunkThreshold = 8000
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2
	}
	if config.Logger == nil {
		config.Logger = logrus.New()
	}

	return &Engine{
		source:    config.SourceLanguage,
		threshold: config.ChunkThreshold,
		llm:       config.ChatModel,
		fallback:  config.Fallback,
		cache:     NewCache(),
		limiter:   rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		logger:    config.Logger,
	}
}

// Cache exposes the engine's cache for explicit invalidation.
func (e *Engine) Cache() *Cache {
	return e.cache
}

// TranslateText translates text into the target language. Same-language and
// blank inputs are returned verbatim, including whitespace-only strings.
// Cache hits skip the network entirely. On LLM failure the public fallback is
// tried; if that fails too, the original text comes back so rendering and
// saving are never blocked by a translation outage.
func (e *Engine) TranslateText(ctx context.Context, text, targetLang string) string {
	if targetLang == e.source || strings.TrimSpace(text) == "" {
		return text
	}

	if cached, ok := e.cache.Get(targetLang, text); ok {
		return cached
	}

	translated, err := e.translateLLM(ctx, text, targetLang)
	if err != nil {
		e.logger.WithError(err).WithField("target", targetLang).Warn("LLM translation failed, trying fallback")

		translated, err = e.translateFallback(ctx, text, targetLang)
		if err != nil {
			e.logger.WithError(err).WithField("target", targetLang).Error("Fallback translation failed, returning original text")
			return text
		}
	}

	e.cache.Set(targetLang, text, translated)
	return translated
}

// TranslateBulk translates texts preserving input order. Cached and blank
// entries are filled locally; the uncached remainder goes out in one batched
// JSON-array request. A structurally bad batch response degrades to one
// TranslateText call per uncached item, sequentially.
func (e *Engine) TranslateBulk(ctx context.Context, texts []string, targetLang string) []string {
	results := make([]string, len(texts))

	if targetLang == e.source {
		copy(results, texts)
		return results
	}

	var uncached []string
	var uncachedIdx []int

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = text
			continue
		}
		if cached, ok := e.cache.Get(targetLang, text); ok {
			results[i] = cached
			continue
		}
		uncached = append(uncached, text)
		uncachedIdx = append(uncachedIdx, i)
	}

	if len(uncached) == 0 {
		return results
	}

	translated, err := e.translateBatchLLM(ctx, uncached, targetLang)
	if err != nil {
		e.logger.WithError(err).WithFields(logrus.Fields{
			"target": targetLang,
			"count":  len(uncached),
		}).Warn("Batch translation failed, falling back to sequential calls")

		for j, text := range uncached {
			results[uncachedIdx[j]] = e.TranslateText(ctx, text, targetLang)
		}
		return results
	}

	for j, text := range uncached {
		e.cache.Set(targetLang, text, translated[j])
		results[uncachedIdx[j]] = translated[j]
	}
	return results
}

// TranslatePage translates a page's title and content. Content above the
// chunk threshold is split on blank lines, translated in bulk and rejoined
// with the same separator, so the section count survives translation. An
// embedded image block stays untouched.
func (e *Engine) TranslatePage(ctx context.Context, title, content, targetLang string) (string, string) {
	translatedTitle := e.TranslateText(ctx, title, targetLang)

	prose, imageBlock := models.SplitContent(content)

	var translatedProse string
	if len(prose) <= e.threshold {
		translatedProse = e.TranslateText(ctx, prose, targetLang)
	} else {
		sections := strings.Split(prose, "\n\n")
		translatedProse = strings.Join(e.TranslateBulk(ctx, sections, targetLang), "\n\n")
	}

	return translatedTitle, translatedProse + imageBlock
}

func (e *Engine) translateLLM(ctx context.Context, text, targetLang string) (string, error) {
	if e.llm == nil {
		return "", fmt.Errorf("no translation model configured")
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return "", err
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, e.systemPrompt(targetLang)),
		llms.TextParts(llms.ChatMessageTypeHuman, text),
	}

	response, err := e.llm.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("translation completion failed: %w", err)
	}

	reply := firstChoice(response)
	if reply == "" {
		return "", fmt.Errorf("empty translation from model")
	}
	return reply, nil
}

func (e *Engine) translateBatchLLM(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	if e.llm == nil {
		return nil, fmt.Errorf("no translation model configured")
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	instruction := e.systemPrompt(targetLang) +
		" The user sends a JSON array of strings. Respond ONLY with a JSON array of the translated strings, in the same order and of the same length, with no extra text."

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, instruction),
		llms.TextParts(llms.ChatMessageTypeHuman, string(payload)),
	}

	response, err := e.llm.GenerateContent(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("batch completion failed: %w", err)
	}

	reply := firstChoice(response)

	var translated []string
	if err := json.Unmarshal([]byte(reply), &translated); err != nil {
		return nil, fmt.Errorf("malformed batch response: %w", err)
	}
	if len(translated) != len(texts) {
		return nil, fmt.Errorf("batch length mismatch: sent %d, got %d", len(texts), len(translated))
	}
	return translated, nil
}

func (e *Engine) translateFallback(ctx context.Context, text, targetLang string) (string, error) {
	if e.fallback == nil {
		return "", fmt.Errorf("no fallback translator configured")
	}
	return e.fallback.Translate(ctx, text, e.source, targetLang)
}

func (e *Engine) systemPrompt(targetLang string) string {
	name := languageNames[targetLang]
	if name == "" {
		name = targetLang
	}
	sourceName := languageNames[e.source]
	if sourceName == "" {
		sourceName = e.source
	}
	return fmt.Sprintf(
		"You are a professional translator. Translate the text from %s to %s literally, preserving any HTML markup, placeholders and formatting exactly. Reply with the translation only.",
		sourceName, name)
}

func firstChoice(response *llms.ContentResponse) string {
	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return ""
	}
	return strings.TrimSpace(response.Choices[0].Content)
}
