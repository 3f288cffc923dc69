package chatbot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/24021959/guidebook-backend/internal/models"
)

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.5, 0.5}
	}
	return out, nil
}

type fakeChatModel struct {
	reply    string
	err      error
	lastMsgs []llms.MessageContent
}

func (f *fakeChatModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	f.lastMsgs = messages
	if f.err != nil {
		return nil, f.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: f.reply}},
	}, nil
}

func (f *fakeChatModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

type fakeKnowledgeRepo struct {
	matches []models.KnowledgeMatch
	err     error
}

func (f *fakeKnowledgeRepo) EnsureSchema() error                             { return nil }
func (f *fakeKnowledgeRepo) ReplaceAll([]models.KnowledgeChunk) error        { return nil }
func (f *fakeKnowledgeRepo) Count() (int64, error)                           { return int64(len(f.matches)), nil }
func (f *fakeKnowledgeRepo) Search([]float32, int, float64) ([]models.KnowledgeMatch, error) {
	return f.matches, f.err
}

type fakeConversationRepo struct {
	created []models.Conversation
}

func (f *fakeConversationRepo) Create(c *models.Conversation) error {
	f.created = append(f.created, *c)
	return nil
}
func (f *fakeConversationRepo) GetRecent(int) ([]models.Conversation, error) { return nil, nil }
func (f *fakeConversationRepo) SetHelpful(uint, bool) error                  { return nil }
func (f *fakeConversationRepo) SetCorrection(uint, string) error             { return nil }

func systemPromptOf(msgs []llms.MessageContent) string {
	for _, m := range msgs {
		if m.Role == llms.ChatMessageTypeSystem {
			var sb strings.Builder
			for _, part := range m.Parts {
				if text, ok := part.(llms.TextContent); ok {
					sb.WriteString(text.Text)
				}
			}
			return sb.String()
		}
	}
	return ""
}

func TestAnswerGroundsReplyOnKnowledge(t *testing.T) {
	chat := &fakeChatModel{reply: "Il ristorante è aperto dalle 19 alle 23."}
	knowledge := &fakeKnowledgeRepo{matches: []models.KnowledgeMatch{
		{Title: "Ristorante", Path: "/ristorante", Content: "Il ristorante è aperto dalle 19 alle 23", Similarity: 0.92},
	}}
	conversations := &fakeConversationRepo{}

	svc := NewService(ServiceConfig{
		Embedder:      &fakeEmbedder{},
		ChatModel:     chat,
		Knowledge:     knowledge,
		Conversations: conversations,
	})

	resp := svc.Answer(context.Background(), models.ChatRequest{
		Message:  "A che ora apre il ristorante?",
		Language: "it",
	})

	assert.True(t, resp.Grounded)
	assert.Equal(t, "Il ristorante è aperto dalle 19 alle 23.", resp.Reply)
	assert.Equal(t, "it", resp.Language)
	assert.NotEmpty(t, resp.SessionID)

	prompt := systemPromptOf(chat.lastMsgs)
	assert.Contains(t, prompt, "Il ristorante è aperto dalle 19 alle 23")
	assert.Contains(t, prompt, "/ristorante")

	require.Len(t, conversations.created, 1)
	assert.Equal(t, "A che ora apre il ristorante?", conversations.created[0].UserMessage)
	assert.Equal(t, resp.Reply, conversations.created[0].BotResponse)
}

func TestAnswerEmptyKnowledgeBase(t *testing.T) {
	chat := &fakeChatModel{reply: "Non ho questa informazione, contatta la reception."}
	svc := NewService(ServiceConfig{
		Embedder:  &fakeEmbedder{},
		ChatModel: chat,
		Knowledge: &fakeKnowledgeRepo{},
	})

	resp := svc.Answer(context.Background(), models.ChatRequest{Message: "C'è la piscina?", Language: "it"})

	assert.False(t, resp.Grounded)
	prompt := systemPromptOf(chat.lastMsgs)
	assert.Contains(t, prompt, "Do not invent details")
}

func TestAnswerFallbackOnGenerationFailure(t *testing.T) {
	svc := NewService(ServiceConfig{
		Embedder:  &fakeEmbedder{},
		ChatModel: &fakeChatModel{err: errors.New("upstream timeout")},
		Knowledge: &fakeKnowledgeRepo{},
	})

	resp := svc.Answer(context.Background(), models.ChatRequest{Message: "Hello", Language: "en"})

	assert.False(t, resp.Grounded)
	assert.Equal(t, FallbackReply("en"), resp.Reply)
}

func TestAnswerFallbackOnEmbeddingFailure(t *testing.T) {
	svc := NewService(ServiceConfig{
		Embedder:  &fakeEmbedder{err: errors.New("quota exceeded")},
		ChatModel: &fakeChatModel{reply: "unused"},
		Knowledge: &fakeKnowledgeRepo{},
	})

	resp := svc.Answer(context.Background(), models.ChatRequest{Message: "Bonjour", Language: "fr"})
	assert.Equal(t, FallbackReply("fr"), resp.Reply)
}

func TestAnswerDefaultsUnknownLanguage(t *testing.T) {
	svc := NewService(ServiceConfig{
		Embedder:  &fakeEmbedder{},
		ChatModel: &fakeChatModel{reply: "ok"},
		Knowledge: &fakeKnowledgeRepo{},
	})

	resp := svc.Answer(context.Background(), models.ChatRequest{Message: "hi", Language: "zz"})
	assert.Equal(t, models.SourceLanguage, resp.Language)
}

func TestAnswerHistoryIsForwarded(t *testing.T) {
	chat := &fakeChatModel{reply: "Alle 19."}
	svc := NewService(ServiceConfig{
		Embedder:  &fakeEmbedder{},
		ChatModel: chat,
		Knowledge: &fakeKnowledgeRepo{},
	})

	svc.Answer(context.Background(), models.ChatRequest{
		Message:  "E a che ora apre?",
		Language: "it",
		History: []models.ChatTurn{
			{Role: "user", Content: "Parlami del ristorante"},
			{Role: "assistant", Content: "Il ristorante serve cucina ligure."},
		},
	})

	// system + 2 history turns + current question
	require.Len(t, chat.lastMsgs, 4)
	assert.Equal(t, llms.ChatMessageTypeAI, chat.lastMsgs[2].Role)
}

func TestFallbackReplyUnknownLanguage(t *testing.T) {
	assert.Equal(t, fallbackReplies["it"], FallbackReply("pt"))
}
