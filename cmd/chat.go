package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/hookchat/internal"
	"github.com/iksnae/hookchat/internal/export"
	"github.com/spf13/cobra"
)

var (
	chatTranscript string
	chatFormat     string
	chatMarkdown   bool
	chatNoGreeting bool
)

var (
	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)

	botMessageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	errorMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196")).
				Bold(true)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

const chatHelp = `Commands:
  /audio   send a voice message
  /retry   reconnect with a new session
  /help    show this help
  /quit    leave the chat`

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat with the bot",
	Long: `Start an interactive chat with the webhook bot.

The session is created with the first message. If the webhook cannot be
reached a local fallback session is used; type /retry to reconnect.

Examples:
  hookchat chat
  hookchat chat --markdown
  hookchat chat --transcript chat.md`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var exporter export.Exporter
		if chatTranscript != "" {
			var err error
			if exporter, err = transcriptExporter(chatTranscript, chatFormat); err != nil {
				return err
			}
		}

		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := cfg.OpenIdentityStore()
		if err != nil {
			return fmt.Errorf("failed to open identity store: %w", err)
		}
		defer func() { _ = store.Close() }()

		client := internal.NewClientFromConfig(cfg, nil)
		conv := internal.NewConversation(client, internal.NewBootstrapper(client, store))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		printer := newMessagePrinter(cmd.OutOrStdout(), chatMarkdown)
		if err := runChat(ctx, conv, cmd.InOrStdin(), printer); err != nil {
			return err
		}

		if exporter != nil {
			if err := writeTranscript(conv.Transcript(), chatTranscript, exporter); err != nil {
				return err
			}
			internal.PrintSuccess(fmt.Sprintf("Transcript saved to %s", chatTranscript))
		}
		return nil
	},
}

// runChat drives the REPL until input ends, /quit is typed or ctx is done.
func runChat(ctx context.Context, conv *internal.Conversation, in io.Reader, p *messagePrinter) error {
	if !chatNoGreeting {
		p.Print(conv.Greet())
	}
	p.Hint("Type a message, /help for commands.")

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)
	for {
		p.Prompt()
		var line string
		select {
		case <-ctx.Done():
			p.Hint("")
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			p.Hint(chatHelp)
			continue
		case "/retry":
			var notice internal.ChatMessage
			internal.ShowTransient(ctx, "Восстанавливаем соединение...", func() {
				notice = conv.Retry(ctx)
			})
			p.Print(notice)
			continue
		case "/audio":
			p.Print(internal.ChatMessage{IsUser: true, Message: internal.TextAudioEcho})
			var reply internal.ChatMessage
			internal.ShowTransient(ctx, "Бот печатает...", func() {
				reply = conv.SendAudio(ctx)
			})
			p.Print(reply)
		default:
			var (
				reply internal.ChatMessage
				err   error
			)
			internal.ShowTransient(ctx, "Бот печатает...", func() {
				reply, err = conv.Send(ctx, line)
			})
			if errors.Is(err, internal.ErrEmptyMessage) {
				continue
			}
			if err != nil {
				return err
			}
			p.Print(reply)
		}

		if conv.ConnectionError() {
			p.Hint("Connection problem. Type /retry to reconnect.")
		}
	}
}

// readLines feeds lines from r into a channel that is closed at EOF. It
// stops sending once done is closed.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case out <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return out
}

// messagePrinter renders chat bubbles, optionally through glamour.
type messagePrinter struct {
	w        io.Writer
	renderer *glamour.TermRenderer
	prompt   bool
}

func newMessagePrinter(w io.Writer, markdown bool) *messagePrinter {
	p := &messagePrinter{w: w, prompt: internal.IsTerminal(os.Stdin)}
	if markdown {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
		if err != nil {
			internal.LogWarn("Markdown rendering disabled: %v", err)
		} else {
			p.renderer = r
		}
	}
	return p
}

func (p *messagePrinter) Print(msg internal.ChatMessage) {
	var label string
	switch internal.Actor(msg) {
	case "user":
		// the terminal already echoed typed input
		if msg.Message != internal.TextAudioEcho {
			return
		}
		label = userMessageStyle.Render("Вы")
	case "error":
		label = errorMessageStyle.Render("Ошибка")
	default:
		label = botMessageStyle.Render("Бот")
	}

	body := msg.Message
	if p.renderer != nil && !msg.IsUser && !msg.IsError {
		if out, err := p.renderer.Render(body); err == nil {
			body = strings.TrimRight(out, "\n")
		}
	} else {
		body = messageContentStyle.Render(body)
	}

	stamp := ""
	if msg.Timestamp != "" {
		stamp = " " + timestampStyle.Render(msg.Timestamp)
	}
	_, _ = fmt.Fprintf(p.w, "%s%s\n%s\n\n", label, stamp, body)
}

func (p *messagePrinter) Hint(text string) {
	if text == "" {
		_, _ = fmt.Fprintln(p.w)
		return
	}
	_, _ = fmt.Fprintln(p.w, hintStyle.Render(text))
}

func (p *messagePrinter) Prompt() {
	if p.prompt {
		_, _ = fmt.Fprint(p.w, userMessageStyle.Render("› "))
	}
}

// transcriptExporter picks the exporter from format, or from the file
// extension when format is empty.
func transcriptExporter(path, format string) (export.Exporter, error) {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
		if format == "" {
			format = "jsonl"
		}
	}
	return export.NewExporter(format)
}

func writeTranscript(t *internal.Transcript, path string, exporter export.Exporter) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create transcript directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create transcript: %w", err)
	}
	if err := exporter.Export(t, file); err != nil {
		_ = file.Close()
		return fmt.Errorf("failed to export transcript: %w", err)
	}
	return file.Close()
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatTranscript, "transcript", "t", "", "Write the conversation to this file on exit")
	chatCmd.Flags().StringVarP(&chatFormat, "format", "f", "", "Transcript format (jsonl, md, yaml, json); default from the file extension")
	chatCmd.Flags().BoolVar(&chatMarkdown, "markdown", false, "Render bot replies as Markdown")
	chatCmd.Flags().BoolVar(&chatNoGreeting, "no-greeting", false, "Skip the opening question")
}
