package internal

// CreateTestTranscript creates a transcript with a short sample exchange
func CreateTestTranscript(id string) *Transcript {
	return &Transcript{
		SessionID:  id,
		UserID:     "user-test",
		Source:     DefaultSource,
		ExportedAt: "2024-05-01T09:00:00Z",
		Messages: []ChatMessage{
			{ID: 1, IsUser: true, Message: "Привет", Timestamp: "09:00"},
			{ID: 2, Message: "Привет! Как дела? Чем могу помочь?", Timestamp: "09:00"},
		},
	}
}

// CreateTestTranscriptWithMessages creates a transcript with custom messages
func CreateTestTranscriptWithMessages(id string, messages []ChatMessage) *Transcript {
	return &Transcript{
		SessionID:  id,
		Source:     DefaultSource,
		ExportedAt: "2024-05-01T09:00:00Z",
		Messages:   messages,
	}
}
