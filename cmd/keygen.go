package cmd

import (
	"github.com/spf13/cobra"

	"github.com/russellromney/cipherkit/internal/models"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a random 256-bit key",
	Long: `Generate a random 256-bit AES key, printed as base64.

Example:
  cipherkit keygen`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	_, err = e.run(cmd, models.OpGenerateKey, struct{}{})
	return err
}
