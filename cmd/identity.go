package cmd

import (
	"fmt"

	"github.com/iksnae/hookchat/internal"
	"github.com/spf13/cobra"
)

// identityCmd represents the identity command
var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Show or reset the persistent user id",
	Long: `The user id identifies this client to the webhook across runs. It is
created on the first session and kept in the configured identity store
(file, sqlite or redis).`,
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored user id",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := cfg.OpenIdentityStore()
		if err != nil {
			return fmt.Errorf("failed to open identity store: %w", err)
		}
		defer func() { _ = store.Close() }()

		id, ok, err := store.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load user id: %w", err)
		}

		out := cmd.OutOrStdout()
		if !ok {
			fmt.Fprintln(out, "No user id stored yet")
			return nil
		}
		fmt.Fprintln(out, id)
		if verbose {
			fmt.Fprintf(out, "Store: %s", cfg.Identity.Driver)
			if cfg.Identity.Path != "" {
				fmt.Fprintf(out, " (%s)", cfg.Identity.Path)
			}
			fmt.Fprintln(out)
		}
		return nil
	},
}

var identityResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Replace the stored user id with a new one",
	Long: `Generate a new user id and store it. The next chat starts a session
for the new id, the same as the retry action does.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := cfg.OpenIdentityStore()
		if err != nil {
			return fmt.Errorf("failed to open identity store: %w", err)
		}
		defer func() { _ = store.Close() }()

		id := internal.NewUserID()
		if err := store.Save(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to save user id: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.AddCommand(identityShowCmd)
	identityCmd.AddCommand(identityResetCmd)
}
