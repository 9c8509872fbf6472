package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spec-kit/case-workflow/internal/auth"
	"github.com/spec-kit/case-workflow/internal/domain"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Manage API tokens"}
	cmd.AddCommand(tokenIssueCmd())
	return cmd
}

func tokenIssueCmd() *cobra.Command {
	var (
		role   string
		office string
		ttl    int
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Auth.AccessTokenTTLMinutes
			}
			principal := domain.Principal{
				Role:   domain.Role(strings.ToUpper(strings.TrimSpace(role))),
				Office: strings.TrimSpace(office),
			}
			token, expiresAt, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).GenerateToken(principal)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{
					"token":     token,
					"role":      principal.Role,
					"office":    principal.Office,
					"expiresAt": expiresAt.UTC().Format(time.RFC3339),
				})
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "INTAKE_OFFICE, COORDINATING_AUTHORITY or ARBITRATION_AUTHORITY")
	cmd.Flags().StringVar(&office, "office", "", "office name (intake offices only)")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "lifetime in minutes (default AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
