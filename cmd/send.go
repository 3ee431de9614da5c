package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iksnae/hookchat/internal"
	"github.com/iksnae/hookchat/internal/export"
	"github.com/spf13/cobra"
)

var (
	sendSession string
	sendAudio   bool
	sendFormat  string
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [message...]",
	Short: "Send one message and print the reply",
	Long: `Send a single message through the delivery chain and print the reply.

Without --session a new session is created first, the same way the chat
does. The exit code is non-zero when the reply is an error message.

Examples:
  hookchat send "Привет"
  hookchat send --session abc123 "Что ты умеешь?"
  hookchat send --audio
  hookchat send --format jsonl "Привет" > exchange.jsonl`,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if !sendAudio && strings.TrimSpace(text) == "" {
			return errors.New("message is required (or use --audio)")
		}

		var exporter export.Exporter
		if sendFormat != "text" {
			var err error
			if exporter, err = export.NewExporter(sendFormat); err != nil {
				return err
			}
		}

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		client := internal.NewClientFromConfig(cfg, nil)

		ctx := cmd.Context()
		sessionID := sendSession
		var userID string
		if sessionID == "" {
			store, err := cfg.OpenIdentityStore()
			if err != nil {
				return fmt.Errorf("failed to open identity store: %w", err)
			}
			defer func() { _ = store.Close() }()

			res := internal.NewBootstrapper(client, store).EnsureSession(ctx, "")
			sessionID, userID = res.ID, res.UserID
			if res.ConnectionError {
				internal.PrintWarning(fmt.Sprintf("Session could not be created, using %s", sessionID))
			}
		}

		var reply internal.ChatMessage
		var sent internal.ChatMessage
		internal.ShowTransient(ctx, "Sending...", func() {
			if sendAudio {
				sent = client.Normalizer().UserMessage(internal.TextAudioEcho)
				reply = client.SendMessage(ctx, internal.AudioTranscription, sessionID, true)
			} else {
				sent = client.Normalizer().UserMessage(text)
				reply = client.SendMessage(ctx, text, sessionID, false)
			}
		})

		out := cmd.OutOrStdout()
		if exporter == nil {
			fmt.Fprintln(out, reply.Message)
		} else {
			t := internal.NewTranscript(sessionID, userID, cfg.Source, []internal.ChatMessage{sent, reply})
			if err := exporter.Export(t, out); err != nil {
				return fmt.Errorf("failed to export reply: %w", err)
			}
		}

		if reply.IsError {
			return errors.New("message was not delivered")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&sendSession, "session", "s", "", "Session id to send in (default: create one)")
	sendCmd.Flags().BoolVar(&sendAudio, "audio", false, "Send a voice message instead of text")
	sendCmd.Flags().StringVarP(&sendFormat, "format", "f", "text", "Output format (text, jsonl, md, yaml, json)")
}
