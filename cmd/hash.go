package cmd

import (
	"github.com/spf13/cobra"

	"github.com/russellromney/cipherkit/internal/models"
)

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Hash a password with Argon2id",
	Long: `Hash a password with Argon2id (256 MiB, 6 passes, 2 lanes).

The output is the standard encoded hash, which carries the algorithm,
parameters and salt needed to verify it later.

Examples:
  cipherkit hash
  cipherkit hash --password mypassword  # Non-interactive`,
	Args: cobra.NoArgs,
	RunE: runHash,
}

var hashPassword string

func init() {
	rootCmd.AddCommand(hashCmd)
	hashCmd.Flags().StringVarP(&hashPassword, "password", "p", "", "Password (non-interactive mode)")
}

func runHash(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	password, err := readPassword(cmd, hashPassword, "Enter password: ", true)
	if err != nil {
		return err
	}

	_, err = e.run(cmd, models.OpHashPassword, map[string]string{"password": password})
	return err
}
