package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"chorus/internal/store"
)

func newAccountCommand(ctx *commandContext) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account utilities",
	}

	accountCmd.AddCommand(newAccountCreateCommand(ctx))
	accountCmd.AddCommand(newAccountKeyCommand(ctx))

	return accountCmd
}

func newAccountCreateCommand(ctx *commandContext) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			account, err := st.CreateAccount(cmd.Context(), email, false)
			if err != nil {
				return fmt.Errorf("create account: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %d (%s)\n", account.ID, account.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email address")
	return cmd
}

func newAccountKeyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "key <account-id>",
		Short: "Issue an API key for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid account id %q", args[0])
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			account, err := st.AccountByID(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("load account: %w", err)
			}
			if account == nil {
				return fmt.Errorf("account %d not found", id)
			}

			secret, err := newSecret()
			if err != nil {
				return fmt.Errorf("generate secret: %w", err)
			}
			if err := st.CreateAccountKey(cmd.Context(), account.ID, secret); err != nil {
				return fmt.Errorf("store key: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key for account %d: %s\n", account.ID, secret)
			return nil
		},
	}
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
