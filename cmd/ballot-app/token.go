package main

import (
	"errors"
	"fmt"
	"time"

	authmw "ballot-app-go/internal/transport/httpserver/middleware"
	"github.com/spf13/cobra"
)

func tokenCommand() *cobra.Command {
	var (
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			_, cfg, err := commonRun()
			if err != nil {
				return err
			}

			token, err := authmw.IssueToken(cfg.Auth, userID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id to embed as the token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
