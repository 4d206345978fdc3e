package cmd

import (
	"github.com/spf13/cobra"

	"github.com/russellromney/cipherkit/internal/models"
)

var deriveCmd = &cobra.Command{
	Use:   "derive",
	Short: "Derive a 256-bit key from a password",
	Long: `Derive a 256-bit key from a password with Argon2id.

Without --salt a fresh 16-byte salt is generated. Store the printed salt
and pass it back with --salt to derive the same key again.

Examples:
  cipherkit derive
  cipherkit derive --salt "$SALT" --password mypassword`,
	Args: cobra.NoArgs,
	RunE: runDerive,
}

var (
	derivePassword string
	deriveSalt     string
)

func init() {
	rootCmd.AddCommand(deriveCmd)
	deriveCmd.Flags().StringVarP(&derivePassword, "password", "p", "", "Password (non-interactive mode)")
	deriveCmd.Flags().StringVar(&deriveSalt, "salt", "", "Base64 salt from a previous derivation")
}

func runDerive(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	password, err := readPassword(cmd, derivePassword, "Enter password: ", false)
	if err != nil {
		return err
	}

	deriveArgs := map[string]any{"password": password}
	if cmd.Flags().Changed("salt") {
		deriveArgs["salt"] = deriveSalt
	}
	_, err = e.run(cmd, models.OpDeriveKey, deriveArgs)
	return err
}
