package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/russellromney/cipherkit/internal/bridge"
	"github.com/russellromney/cipherkit/internal/models"
)

var errPasswordMismatch = errors.New("password does not match")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a password against an encoded hash",
	Long: `Verify a password against an encoded Argon2id hash.

Prints {"valid": ..., "needs_rehash": ...}. needs_rehash is true when a
matching hash was made with older parameters. A mismatch exits with
status 1; a malformed hash exits with status 2.

Examples:
  cipherkit verify --hash '$argon2id$v=19$m=262144,t=6,p=2$...'
  cipherkit verify --hash "$HASH" --password mypassword`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

var (
	verifyHash     string
	verifyPassword string
)

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyHash, "hash", "", "Encoded hash (required)")
	verifyCmd.Flags().StringVarP(&verifyPassword, "password", "p", "", "Password (non-interactive mode)")
	verifyCmd.MarkFlagRequired("hash")
}

func runVerify(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	password, err := readPassword(cmd, verifyPassword, "Enter password: ", false)
	if err != nil {
		return err
	}

	result, err := e.run(cmd, models.OpVerifyPassword, map[string]string{
		"hash":     verifyHash,
		"password": password,
	})
	if err != nil {
		return err
	}
	res := result.(bridge.VerifyResult)
	if !res.Valid {
		return errPasswordMismatch
	}
	if res.NeedsRehash {
		fmt.Fprintln(cmd.ErrOrStderr(), "Hash uses outdated parameters; run 'cipherkit hash' to replace it")
	}
	return nil
}
