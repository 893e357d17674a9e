package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"exportdocs/internal/lifecycle"
	"exportdocs/internal/platform/auth"
	id "exportdocs/pkg/domain"
)

var (
	tokenActor string
	tokenOrg   string
	tokenRole  string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage bearer tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a bearer token for an actor",
	Long:  "Signs a token with the configured key. A new actor id is generated when --actor is omitted.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		actorID := id.NewActorID()
		if tokenActor != "" {
			parsed, err := id.ParseActorID(tokenActor)
			if err != nil {
				return err
			}
			actorID = parsed
		}
		orgID, err := id.ParseOrganizationID(tokenOrg)
		if err != nil {
			return err
		}
		role, err := lifecycle.ParseRole(tokenRole)
		if err != nil {
			return err
		}
		ttl := tokenTTL
		if ttl <= 0 {
			ttl = cfg.Auth.TokenTTL
		}
		if cfg.UsesDevSigningKey() {
			log.Warn("signing with the development key")
		}

		token, err := auth.NewTokenService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer).Issue(actorID, orgID, role, ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenActor, "actor", "", "actor id (uuid)")
	tokenIssueCmd.Flags().StringVar(&tokenOrg, "org", "", "organization id (uuid)")
	tokenIssueCmd.Flags().StringVar(&tokenRole, "role", "supplier", "supplier, logistics, compliance or admin")
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = tokenIssueCmd.MarkFlagRequired("org")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}
