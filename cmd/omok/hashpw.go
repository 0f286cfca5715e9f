package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YongminGwon/omok-server/internal/auth"
)

// newHashPasswordCmd prints the hash of a password read from stdin, for
// seeding accounts by hand. The password is never taken as an argument so
// it stays out of shell history.
func newHashPasswordCmd() *cobra.Command {
	var (
		hasherName string
		cost       int
	)

	cmd := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin",
		Example: `  printf '%s' "$PASSWORD" | omok hash-password
  omok hash-password --hasher argon2id < password.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			hasher, err := auth.NewHasher(hasherName, cost)
			if err != nil {
				return err
			}

			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("reading password: %w", err)
			}
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				return auth.ErrEmptyPassword
			}

			hash, err := hasher.Hash(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	cmd.Flags().StringVar(&hasherName, "hasher", auth.HasherBcrypt, "password hasher (bcrypt or argon2id)")
	cmd.Flags().IntVar(&cost, "cost", 0, "bcrypt cost (0 = default)")
	return cmd
}
