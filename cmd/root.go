package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/russellromney/cipherkit/internal/bridge"
	"github.com/russellromney/cipherkit/internal/models"
)

var rootCmd = &cobra.Command{
	Use:   "cipherkit",
	Short: "Password hashing and text encryption helpers",
	Long: `Cipherkit hashes and verifies passwords with Argon2id, derives
AES-256 keys from passwords, and encrypts UTF-8 text with AES-256-GCM.

Every command prints JSON on stdout. Binary values (keys, salts, nonces,
ciphertext) are standard base64.

Example workflow:
  cipherkit hash                          # Prompt for a password, print its hash
  cipherkit verify --hash '$argon2id$...' # Prompt and check a password
  cipherkit derive                        # Derive a key and a fresh salt
  cipherkit encrypt --key <b64> "text"    # Encrypt with a 32-byte key
  cipherkit serve                         # Answer JSON requests on stdin`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	dataDirFlag  string
	logLevelFlag string
	auditFlag    bool
)

// Exit codes
const (
	exitRecoverable = 1
	exitFatal       = 2
)

// Execute runs the root command
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var be *bridge.Error
		if errors.As(err, &be) && be.Kind == models.ErrorKindFatal {
			os.Exit(exitFatal)
		}
		os.Exit(exitRecoverable)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Data directory (default $CIPHERKIT_HOME or ~/.cipherkit)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&auditFlag, "audit", false, "Record calls in the audit database")
}
