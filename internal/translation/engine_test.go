package translation

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"

	"github.com/24021959/guidebook-backend/internal/models"
)

type fakeModel struct {
	calls      int
	err        error
	lastPrompt string
	handler    func(prompt string) string
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	prompt := textOf(messages[len(messages)-1])
	f.lastPrompt = prompt
	reply := "translated: " + prompt
	if f.handler != nil {
		reply = f.handler(prompt)
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

func textOf(msg llms.MessageContent) string {
	var sb strings.Builder
	for _, part := range msg.Parts {
		if text, ok := part.(llms.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String()
}

// echoBatch answers batch requests with a valid JSON array so bulk tests can
// distinguish batched from sequential calls.
func echoBatch(prefix string) func(string) string {
	return func(prompt string) string {
		var texts []string
		if err := json.Unmarshal([]byte(prompt), &texts); err == nil {
			for i := range texts {
				texts[i] = prefix + texts[i]
			}
			out, _ := json.Marshal(texts)
			return string(out)
		}
		return prefix + prompt
	}
}

type fakeFallback struct {
	calls int
	err   error
	reply string
}

func (f *fakeFallback) Translate(_ context.Context, text, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	if f.reply != "" {
		return f.reply, nil
	}
	return "fallback: " + text, nil
}

func newTestEngine(model llms.Model, fallback FallbackTranslator) *Engine {
	return NewEngine(EngineConfig{
		ChatModel: model,
		Fallback:  fallback,
		RateLimit: 1000, // keep tests fast
	})
}

func TestTranslateTextIdentity(t *testing.T) {
	model := &fakeModel{}
	engine := newTestEngine(model, nil)

	assert.Equal(t, "Benvenuti", engine.TranslateText(context.Background(), "Benvenuti", "it"))
	assert.Equal(t, "", engine.TranslateText(context.Background(), "", "en"))
	assert.Equal(t, "   \n", engine.TranslateText(context.Background(), "   \n", "en"))
	assert.Equal(t, 0, model.calls, "identity cases must not reach the model")
}

func TestTranslateTextCachesResults(t *testing.T) {
	model := &fakeModel{}
	engine := newTestEngine(model, nil)

	first := engine.TranslateText(context.Background(), "Benvenuti", "en")
	second := engine.TranslateText(context.Background(), "Benvenuti", "en")

	assert.Equal(t, first, second)
	assert.Equal(t, 1, model.calls, "second call must be served from cache")

	engine.TranslateText(context.Background(), "Benvenuti", "de")
	assert.Equal(t, 2, model.calls, "different language is a different cache entry")
}

func TestTranslateTextFallbackPath(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	fallback := &fakeFallback{}
	engine := newTestEngine(model, fallback)

	got := engine.TranslateText(context.Background(), "Benvenuti", "en")
	assert.Equal(t, "fallback: Benvenuti", got)
	assert.Equal(t, 1, fallback.calls)

	// Fallback successes are cached too.
	engine.TranslateText(context.Background(), "Benvenuti", "en")
	assert.Equal(t, 1, fallback.calls)
}

func TestTranslateTextReturnsOriginalOnDoubleFailure(t *testing.T) {
	model := &fakeModel{err: errors.New("down")}
	fallback := &fakeFallback{err: errors.New("also down")}
	engine := newTestEngine(model, fallback)

	got := engine.TranslateText(context.Background(), "Benvenuti al Roero", "en")
	assert.Equal(t, "Benvenuti al Roero", got)
	assert.Equal(t, 0, engine.Cache().Len(), "failures must not be cached")
}

func TestTranslateBulkPreservesOrder(t *testing.T) {
	model := &fakeModel{handler: echoBatch("T:")}
	engine := newTestEngine(model, nil)

	engine.Cache().Set("en", "b", "cached-b")

	got := engine.TranslateBulk(context.Background(), []string{"a", "b", "", "c"}, "en")

	assert.Equal(t, []string{"T:a", "cached-b", "", "T:c"}, got)
	assert.Equal(t, 1, model.calls, "uncached items go out in one batch")
}

func TestTranslateBulkIdentity(t *testing.T) {
	model := &fakeModel{}
	engine := newTestEngine(model, nil)

	got := engine.TranslateBulk(context.Background(), []string{"uno", "due"}, "it")
	assert.Equal(t, []string{"uno", "due"}, got)
	assert.Equal(t, 0, model.calls)
}

func TestTranslateBulkMalformedBatchDegradesToSequential(t *testing.T) {
	model := &fakeModel{}
	batchSeen := false
	model.handler = func(prompt string) string {
		var texts []string
		if json.Unmarshal([]byte(prompt), &texts) == nil {
			batchSeen = true
			return "sorry, here are the translations: ..." // not a JSON array
		}
		return "seq:" + prompt
	}
	engine := newTestEngine(model, nil)

	got := engine.TranslateBulk(context.Background(), []string{"a", "b"}, "en")

	assert.True(t, batchSeen)
	assert.Equal(t, []string{"seq:a", "seq:b"}, got)
	assert.Equal(t, 3, model.calls, "one failed batch plus one call per item")
}

func TestTranslateBulkLengthMismatchDegradesToSequential(t *testing.T) {
	model := &fakeModel{}
	model.handler = func(prompt string) string {
		var texts []string
		if json.Unmarshal([]byte(prompt), &texts) == nil {
			return `["only one"]`
		}
		return "seq:" + prompt
	}
	engine := newTestEngine(model, nil)

	got := engine.TranslateBulk(context.Background(), []string{"a", "b"}, "en")
	assert.Equal(t, []string{"seq:a", "seq:b"}, got)
}

func TestTranslatePageSmallContent(t *testing.T) {
	model := &fakeModel{}
	engine := newTestEngine(model, nil)

	title, content := engine.TranslatePage(context.Background(), "Ristorante", "<p>Cucina ligure</p>", "en")
	assert.Equal(t, "translated: Ristorante", title)
	assert.Equal(t, "translated: <p>Cucina ligure</p>", content)
}

func TestTranslatePageChunksLargeContent(t *testing.T) {
	model := &fakeModel{handler: echoBatch("")}
	engine := NewEngine(EngineConfig{
		ChatModel:      model,
		RateLimit:      1000,
		ChunkThreshold: 50,
	})

	sections := []string{
		strings.Repeat("a", 30),
		strings.Repeat("b", 30),
		strings.Repeat("c", 30),
	}
	content := strings.Join(sections, "\n\n")

	_, translated := engine.TranslatePage(context.Background(), "T", content, "en")

	assert.Len(t, strings.Split(translated, "\n\n"), len(sections), "section count must survive chunked translation")
}

func TestTranslatePagePreservesImageBlock(t *testing.T) {
	model := &fakeModel{}
	engine := newTestEngine(model, nil)

	imageBlock := models.ImageSentinel + "\n{\"type\":\"image\",\"url\":\"/img/spa.jpg\"}"
	content := "<p>La spa</p>\n" + imageBlock

	_, translated := engine.TranslatePage(context.Background(), "Spa", content, "en")

	assert.True(t, strings.Contains(translated, imageBlock), "image block must pass through untranslated")
	assert.NotContains(t, model.lastPrompt, "/img/spa.jpg", "image placements must never reach the model")
}
