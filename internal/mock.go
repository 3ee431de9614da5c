package internal

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"
)

// MockCategory groups user messages for canned replies.
type MockCategory string

const (
	MockUnknown      MockCategory = "unknown"
	MockGreeting     MockCategory = "greeting"
	MockFarewell     MockCategory = "farewell"
	MockN8N          MockCategory = "n8n"
	MockCapabilities MockCategory = "capabilities"
)

var mockReplies = map[MockCategory][]string{
	MockUnknown: {
		"Извините, я не совсем понял ваш вопрос. Не могли бы вы уточнить?",
		"Это интересный вопрос! Не могли бы вы рассказать больше?",
		"Я еще изучаю этот аспект. Можете ли вы предоставить дополнительную информацию?",
		"Спасибо за вопрос. Давайте разберем это подробнее.",
	},
	MockGreeting: {
		"Привет! Как дела? Чем могу помочь?",
		"Здравствуйте! Рад вас видеть. О чем хотели бы поговорить?",
		"Добро пожаловать! Готов ответить на ваши вопросы.",
		"Привет! Отличный день для общения, не так ли?",
	},
	MockFarewell: {
		"До свидания! Было приятно пообщаться.",
		"Увидимся! Обращайтесь, если появятся вопросы.",
		"Пока! Хорошего дня!",
		"До встречи! Надеюсь, наш разговор был полезным.",
	},
	MockN8N: {
		"n8n - это отличная платформа для автоматизации рабочих процессов!",
		"С помощью n8n можно создавать мощные интеграции между различными сервисами.",
		"n8n позволяет автоматизировать множество задач с помощью простого визуального интерфейса.",
		"Я работаю на базе автоматизации n8n, что позволяет мне быть более эффективным.",
	},
	MockCapabilities: {
		"Я могу помочь с ответами на ваши вопросы и ведением диалога.",
		"Моя задача - помочь вам в онбординге и ответить на возникающие вопросы.",
		"Я специализируюсь на поддержке пользователей и предоставлении информации.",
		"Я могу общаться как через текст, так и через голосовые сообщения.",
	},
}

// categoryKeywords is checked in order; the first category with a matching
// keyword wins.
var categoryKeywords = []struct {
	category MockCategory
	keywords []string
}{
	{MockGreeting, []string{"привет", "здравствуй", "добро"}},
	{MockFarewell, []string{"пока", "до свидания", "спасибо"}},
	{MockN8N, []string{"n8n", "автоматизация", "интеграция"}},
	{MockCapabilities, []string{"можешь", "умеешь", "способност"}},
}

// CategorizeMessage picks the canned-reply category for message.
func CategorizeMessage(message string) MockCategory {
	lower := strings.ToLower(message)
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.category
			}
		}
	}
	return MockUnknown
}

// MatchedCategories returns every category with a keyword in message, in
// category order and without duplicates.
func MatchedCategories(message string) []MockCategory {
	lower := strings.ToLower(message)
	var out []MockCategory
	for _, c := range categoryKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, c.category)
				break
			}
		}
	}
	return out
}

// MockResponder produces canned bot replies. pick chooses an index in [0, n).
type MockResponder struct {
	// Smart combines one reply per matched category instead of only the first.
	Smart bool

	mu   sync.Mutex
	pick func(n int) int
}

// NewMockResponder creates a responder choosing replies at random.
func NewMockResponder(smart bool) *MockResponder {
	return &MockResponder{Smart: smart, pick: rand.Intn}
}

func (m *MockResponder) choose(c MockCategory) string {
	replies := mockReplies[c]
	m.mu.Lock()
	i := m.pick(len(replies))
	m.mu.Unlock()
	return replies[i]
}

// Reply returns the canned answer to message.
func (m *MockResponder) Reply(message string) string {
	if m.Smart {
		if cats := MatchedCategories(message); len(cats) > 0 {
			parts := make([]string, len(cats))
			for i, c := range cats {
				parts[i] = m.choose(c)
			}
			return strings.Join(parts, " ")
		}
	}
	return m.choose(CategorizeMessage(message))
}

// MockWebhook is an http.Handler speaking the webhook protocol. Init
// requests get a session id and messages get {"message": reply}.
type MockWebhook struct {
	Responder *MockResponder
	// Delay is waited before every POST answer.
	Delay time.Duration
}

// NewMockWebhook creates a handler around responder.
func NewMockWebhook(responder *MockResponder, delay time.Duration) *MockWebhook {
	if responder == nil {
		responder = NewMockResponder(false)
	}
	return &MockWebhook{Responder: responder, Delay: delay}
}

type mockRequest struct {
	Action    string `json:"action"`
	UserID    string `json:"userId"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Type      string `json:"type"`
}

func (h *MockWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodHead, http.MethodGet:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req mockRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxResponseBytes)).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if h.Delay > 0 {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(h.Delay):
		}
	}

	var body map[string]string
	if req.Action == "init_session" {
		body = map[string]string{"sessionId": fmt.Sprintf("mock-session-%s", req.UserID)}
		LogInfo("Mock session for %s", req.UserID)
	} else {
		body = map[string]string{"message": h.Responder.Reply(req.Message)}
		LogDebug("Mock reply to %q (%s) in session %s", req.Message, req.Type, req.SessionID)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
