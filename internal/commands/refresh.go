package commands

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"parking_api_testing/internal/tokens"
)

var (
	refreshCollection string
	refreshBaseURL    string
)

var refreshTokensCmd = &cobra.Command{
	Use:   "refresh-tokens",
	Short: "Log in both accounts and update the tokens in the .http collection",
	Long: `refresh-tokens logs in the configured user and admin accounts and rewrites the
"@userToken = ..." and "@adminToken = ..." lines of the request-collection file.
The file is left untouched when either login fails.`,
	RunE: runRefreshTokens,
}

func init() {
	refreshTokensCmd.Flags().StringVar(&refreshCollection, "collection", "", "Path of the .http collection file")
	refreshTokensCmd.Flags().StringVar(&refreshBaseURL, "base-url", "", "Base URL of the parking API")
}

func runRefreshTokens(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if refreshCollection != "" {
		cfg.CollectionPath = refreshCollection
	}
	if refreshBaseURL != "" {
		cfg.BaseURL = strings.TrimRight(refreshBaseURL, "/")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stderr)
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = tokens.Refresh(ctx, tokens.Options{
		BaseURL:        cfg.BaseURL,
		TokenField:     cfg.TokenField,
		CollectionPath: cfg.CollectionPath,
		User:           cfg.Accounts.User,
		Admin:          cfg.Accounts.Admin,
		Client:         &http.Client{Timeout: cfg.Timeout},
		Fs:             afero.NewOsFs(),
		Out:            out,
		Logger:         logger,
	})
	if err != nil {
		fmt.Fprintf(out, "\n❌ FAILED! Check if server is running on %s\n", cfg.BaseURL)
		return err
	}

	fmt.Fprintln(out, "\n🎯 SUCCESS! Tokens updated in REST file.")
	return nil
}
