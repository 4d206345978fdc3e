package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/russellromney/cipherkit/internal/models"
)

var encryptCmd = &cobra.Command{
	Use:   "encrypt [TEXT]",
	Short: "Encrypt text with AES-256-GCM",
	Long: `Encrypt UTF-8 text with AES-256-GCM under a fresh random nonce.

The text is taken from the argument, or from stdin when omitted.
Prints {"nonce": ..., "cipher": ...}; keep both for decryption.

Examples:
  cipherkit encrypt --key "$KEY" "hello"
  echo -n "hello" | cipherkit encrypt --key "$KEY"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEncrypt,
}

var encryptKey string

func init() {
	rootCmd.AddCommand(encryptCmd)
	encryptCmd.Flags().StringVarP(&encryptKey, "key", "k", "", "Base64 32-byte key (required)")
	encryptCmd.MarkFlagRequired("key")
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	var plaintext string
	if len(args) == 1 {
		plaintext = args[0]
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		plaintext = string(data)
	}

	_, err = e.run(cmd, models.OpEncrypt, map[string]string{
		"plaintext": plaintext,
		"key":       encryptKey,
	})
	return err
}
