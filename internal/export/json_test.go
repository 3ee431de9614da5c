package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/hookchat/internal"
)

func TestJSONExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		wantErr    bool
	}{
		{
			name:       "basic transcript",
			transcript: internal.CreateTestTranscript("test1"),
			wantErr:    false,
		},
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithMessages("test2", []internal.ChatMessage{}),
			wantErr:    false,
		},
		{
			name: "transcript with error message",
			transcript: internal.CreateTestTranscriptWithMessages("test3", []internal.ChatMessage{
				{ID: 1, Message: "Сервер временно недоступен.", IsError: true, Timestamp: "10:00"},
			}),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONExporter{}

			err := exporter.Export(tt.transcript, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			output := buf.String()
			var decoded internal.Transcript
			if err := json.Unmarshal([]byte(output), &decoded); err != nil {
				t.Errorf("Output is not valid JSON: %v\nOutput: %s", err, output)
				return
			}
			if decoded.SessionID != tt.transcript.SessionID {
				t.Errorf("sessionId = %q, want %q", decoded.SessionID, tt.transcript.SessionID)
			}
			if len(decoded.Messages) != len(tt.transcript.Messages) {
				t.Errorf("messages = %d, want %d", len(decoded.Messages), len(tt.transcript.Messages))
			}
			if !strings.Contains(output, "  ") {
				t.Errorf("Output should be pretty-printed with indentation")
			}
		})
	}
}

func TestJSONExporter_KeepsUnicode(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(internal.CreateTestTranscript("u"), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Привет") {
		t.Errorf("Cyrillic should not be escaped: %s", buf.String())
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
