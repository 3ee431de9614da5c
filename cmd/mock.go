package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iksnae/hookchat/internal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	mockAddr  string
	mockDelay time.Duration
	mockSmart bool
)

// mockCmd represents the mock command
var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Run a local mock bot speaking the webhook protocol",
	Long: `Run a local HTTP server that answers like the n8n webhook.

Session init requests get a mock session id and messages get a canned
reply picked by keyword. Point a config endpoint at it to chat offline.

Examples:
  hookchat mock
  hookchat mock --addr :9090 --delay 1s --smart
  HOOKCHAT_ENDPOINTS=http://localhost:8080/webhook hookchat chat`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ln, err := net.Listen("tcp", mockAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", mockAddr, err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		internal.PrintInfo(fmt.Sprintf("Mock webhook listening on http://%s", ln.Addr()))
		return serveMock(ctx, ln, internal.NewMockWebhook(internal.NewMockResponder(mockSmart), mockDelay))
	},
}

// serveMock serves handler on ln until ctx is done, then shuts down.
func serveMock(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		internal.LogInfo("Shutting down mock webhook")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func init() {
	rootCmd.AddCommand(mockCmd)
	mockCmd.Flags().StringVar(&mockAddr, "addr", "127.0.0.1:8080", "Listen address")
	mockCmd.Flags().DurationVar(&mockDelay, "delay", 0, "Delay before every reply")
	mockCmd.Flags().BoolVar(&mockSmart, "smart", false, "Combine replies for every matched topic")
}
