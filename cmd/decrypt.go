package cmd

import (
	"github.com/spf13/cobra"

	"github.com/russellromney/cipherkit/internal/models"
)

var decryptCmd = &cobra.Command{
	Use:   "decrypt",
	Short: "Decrypt text encrypted with AES-256-GCM",
	Long: `Decrypt a nonce/cipher pair produced by 'cipherkit encrypt'.

A wrong key and tampered data are reported the same way.

Example:
  cipherkit decrypt --key "$KEY" --nonce "$NONCE" --cipher "$CIPHER"`,
	Args: cobra.NoArgs,
	RunE: runDecrypt,
}

var (
	decryptKey    string
	decryptNonce  string
	decryptCipher string
)

func init() {
	rootCmd.AddCommand(decryptCmd)
	decryptCmd.Flags().StringVarP(&decryptKey, "key", "k", "", "Base64 32-byte key (required)")
	decryptCmd.Flags().StringVar(&decryptNonce, "nonce", "", "Base64 nonce (required)")
	decryptCmd.Flags().StringVar(&decryptCipher, "cipher", "", "Base64 ciphertext (required)")
	decryptCmd.MarkFlagRequired("key")
	decryptCmd.MarkFlagRequired("nonce")
	decryptCmd.MarkFlagRequired("cipher")
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	_, err = e.run(cmd, models.OpDecrypt, map[string]string{
		"nonce":  decryptNonce,
		"cipher": decryptCipher,
		"key":    decryptKey,
	})
	return err
}
