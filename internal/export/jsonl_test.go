package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/hookchat/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name       string
		transcript *internal.Transcript
		want       []string
		wantErr    bool
	}{
		{
			name:       "empty transcript",
			transcript: internal.CreateTestTranscriptWithMessages("test1", []internal.ChatMessage{}),
			want:       []string{},
			wantErr:    false,
		},
		{
			name:       "transcript with messages",
			transcript: internal.CreateTestTranscript("test2"),
			want: []string{
				`"actor":"user"`,
				`"actor":"bot"`,
				`"sessionId":"test2"`,
			},
			wantErr: false,
		},
		{
			name: "error message",
			transcript: internal.CreateTestTranscriptWithMessages("test3", []internal.ChatMessage{
				{ID: 5, Message: "fail", IsError: true, Timestamp: "10:01"},
			}),
			want: []string{
				`"actor":"error"`,
				`"timestamp":"10:01"`,
				`"id":5`,
			},
			wantErr: false,
		},
		{
			name: "message without timestamp",
			transcript: internal.CreateTestTranscriptWithMessages("test4", []internal.ChatMessage{
				{ID: 1, IsUser: true, Message: "Hello"},
			}),
			want: []string{
				`"message":"Hello"`,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			err := exporter.Export(tt.transcript, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONLExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			output := buf.String()
			if len(tt.transcript.Messages) == 0 {
				if output != "" {
					t.Errorf("Empty transcript should produce empty output, got: %q", output)
				}
				return
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			if len(lines) != len(tt.transcript.Messages) {
				t.Errorf("got %d lines, want %d", len(lines), len(tt.transcript.Messages))
			}
			for _, line := range lines {
				var obj map[string]interface{}
				if err := json.Unmarshal([]byte(line), &obj); err != nil {
					t.Errorf("Line is not valid JSON: %v\nLine: %s", err, line)
				}
				if strings.Contains(line, "timestamp") && obj["timestamp"] == "" {
					t.Errorf("timestamp should be omitted when empty: %s", line)
				}
			}
			for _, wantStr := range tt.want {
				if !strings.Contains(output, wantStr) {
					t.Errorf("Output should contain %q, got: %s", wantStr, output)
				}
			}
		})
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
