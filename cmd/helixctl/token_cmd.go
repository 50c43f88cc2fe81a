package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"helix/internal/auth"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		operator string
		name     string
		email    string
		role     string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator token signed with HELIX_JWT_SECRET (development)",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := auth.NewJWT(&opts.cfg.JWT).Issue(operator, name, email, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&operator, "operator", "", "Operator ID (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email for batch summaries")
	cmd.Flags().StringVar(&role, "role", "operator", "Role")
	cmd.Flags().DurationVar(&ttl, "ttl", 8*time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}
