package chatbot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"

	"github.com/24021959/guidebook-backend/internal/llm"
	"github.com/24021959/guidebook-backend/internal/models"
	"github.com/24021959/guidebook-backend/pkg/utils"
)

// fallbackReplies are served when retrieval or generation fails. The guest
// always gets an answer in their own language, never an error page.
var fallbackReplies = map[string]string{
	"it": "Mi dispiace, al momento non riesco a rispondere. Riprova tra qualche istante o contatta la reception.",
	"en": "I'm sorry, I can't answer right now. Please try again in a moment or contact the reception.",
	"fr": "Je suis désolé, je ne peux pas répondre pour le moment. Veuillez réessayer dans un instant ou contacter la réception.",
	"de": "Es tut mir leid, ich kann im Moment nicht antworten. Bitte versuchen Sie es gleich noch einmal oder wenden Sie sich an die Rezeption.",
	"es": "Lo siento, no puedo responder en este momento. Inténtalo de nuevo en un momento o contacta con la recepción.",
}

const maxHistoryTurns = 6

// ServiceConfig carries the dependencies of the chatbot Service.
type ServiceConfig struct {
	Embedder      llm.Embedder
	ChatModel     llms.Model
	Knowledge     models.KnowledgeRepository
	Conversations models.ConversationRepository
	TopK          int
	Threshold     float64
	Logger        *logrus.Logger
}

// Service answers guest questions grounded on the knowledge base. Every
// exchange is logged for the admin review queue.
type Service struct {
	embedder      llm.Embedder
	chat          llms.Model
	knowledge     models.KnowledgeRepository
	conversations models.ConversationRepository
	topK          int
	threshold     float64
	logger        *logrus.Logger
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.5
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Service{
		embedder:      cfg.Embedder,
		chat:          cfg.ChatModel,
		knowledge:     cfg.Knowledge,
		conversations: cfg.Conversations,
		topK:          cfg.TopK,
		threshold:     cfg.Threshold,
		logger:        cfg.Logger,
	}
}

// Answer runs the retrieval-augmented pipeline for one guest message.
// It never returns an error for pipeline failures; the reply degrades to a
// canned apology instead so the widget stays usable.
func (s *Service) Answer(ctx context.Context, req models.ChatRequest) *models.ChatResponse {
	start := time.Now()

	language := strings.ToLower(strings.TrimSpace(req.Language))
	if !models.IsSupportedLanguage(language) {
		language = models.SourceLanguage
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = utils.GenerateRandomID(16)
	}

	reply, grounded, err := s.generate(ctx, req.Message, req.History, language)
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"session": sessionID,
			"error":   err.Error(),
		}).Warn("Chatbot pipeline failed, serving fallback reply")
		reply = FallbackReply(language)
		grounded = false
	}

	s.record(sessionID, language, req.Message, reply)

	return &models.ChatResponse{
		Reply:        reply,
		Language:     language,
		SessionID:    sessionID,
		Grounded:     grounded,
		ResponseTime: int(time.Since(start).Milliseconds()),
	}
}

func (s *Service) generate(ctx context.Context, message string, history []models.ChatTurn, language string) (string, bool, error) {
	vectors, err := s.embedder.CreateEmbedding(ctx, []string{message})
	if err != nil {
		return "", false, fmt.Errorf("embedding question: %w", err)
	}

	matches, err := s.knowledge.Search(vectors[0], s.topK, s.threshold)
	if err != nil {
		return "", false, fmt.Errorf("searching knowledge base: %w", err)
	}

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, s.systemPrompt(matches, language)),
	}
	for _, turn := range trimHistory(history) {
		role := llms.ChatMessageTypeHuman
		if strings.EqualFold(turn.Role, "assistant") {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, turn.Content))
	}
	content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, message))

	resp, err := s.chat.GenerateContent(ctx, content, llms.WithTemperature(0.3))
	if err != nil {
		return "", false, fmt.Errorf("generating reply: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", false, fmt.Errorf("empty completion")
	}

	return strings.TrimSpace(resp.Choices[0].Content), len(matches) > 0, nil
}

// systemPrompt embeds the retrieved chunks verbatim so the model answers from
// the hotel's actual content rather than its general knowledge.
func (s *Service) systemPrompt(matches []models.KnowledgeMatch, language string) string {
	var sb strings.Builder
	sb.WriteString("You are the virtual concierge of this hotel. ")
	sb.WriteString("Answer the guest's question in the language with ISO code \"")
	sb.WriteString(language)
	sb.WriteString("\", in a warm and concise tone.\n\n")

	if len(matches) == 0 {
		sb.WriteString("No information about this topic is available. ")
		sb.WriteString("Say you do not have that information and suggest contacting the reception. ")
		sb.WriteString("Do not invent details about the hotel.")
		return sb.String()
	}

	sb.WriteString("Use ONLY the following hotel information to answer. ")
	sb.WriteString("If the answer is not in it, say you do not know and suggest contacting the reception.\n")
	for i, match := range matches {
		sb.WriteString(fmt.Sprintf("\n--- Source %d (%s) ---\n", i+1, match.Path))
		sb.WriteString(match.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (s *Service) record(sessionID, language, question, reply string) {
	if s.conversations == nil {
		return
	}
	conv := &models.Conversation{
		SessionID:   sessionID,
		Language:    language,
		UserMessage: question,
		BotResponse: reply,
	}
	if err := s.conversations.Create(conv); err != nil {
		s.logger.WithField("error", err.Error()).Warn("Failed to record chatbot conversation")
	}
}

func trimHistory(history []models.ChatTurn) []models.ChatTurn {
	if len(history) > maxHistoryTurns {
		return history[len(history)-maxHistoryTurns:]
	}
	return history
}

// FallbackReply returns the canned apology for a language, defaulting to
// Italian for anything unrecognized.
func FallbackReply(language string) string {
	if reply, ok := fallbackReplies[language]; ok {
		return reply
	}
	return fallbackReplies[models.SourceLanguage]
}
