package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/h77compass/first-repo/config"
	"github.com/h77compass/first-repo/utils"
)

var (
	tokenUserID   uint
	tokenUsername string
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for an author",
	Long: `Signs a JWT with the configured secret so an author identity can call the
comment and authoring endpoints. Admin rights follow ADMIN_USERNAMES.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().UintVar(&tokenUserID, "user-id", 0, "author id (required)")
	tokenCmd.Flags().StringVar(&tokenUsername, "username", "", "author display name (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	return mintToken(cmd, config.Get(), tokenUserID, tokenUsername, tokenTTL)
}

func mintToken(cmd *cobra.Command, cfg config.AppConfig, userID uint, username string, ttl time.Duration) error {
	username = strings.TrimSpace(username)
	if userID == 0 || username == "" {
		return errors.New("--user-id and --username are required")
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive, got %s", ttl)
	}
	tok, err := utils.GenerateToken(cfg.JWTSecret, userID, username, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tok)
	return nil
}
