package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/mypeeps/internal/auth"
)

var (
	tokenUser  string
	tokenEmail string
)

// tokenCmd mints a bearer token for local testing. Production tokens come
// from the identity provider sharing JWT_SECRET.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed bearer token for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Auth.Secret == "" {
			return fmt.Errorf("auth.secret (JWT_SECRET) is required")
		}

		jwtManager := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenDuration, cfg.Auth.Issuer)
		token, err := jwtManager.Generate(tokenUser, tokenEmail)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id to put in the token (required)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "email claim")
	_ = tokenCmd.MarkFlagRequired("user")
}
