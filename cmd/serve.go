package cmd

import (
	"github.com/spf13/cobra"

	"github.com/russellromney/cipherkit/internal/bridge"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer JSON requests on stdin",
	Long: `Run the bridge: read one JSON request per line from stdin and write
one JSON response per line to stdout.

Functions: hash_password, verify_password, generate_key, encrypt,
decrypt, derive_key, generate_recovery_key.

Each password hash or key derivation holds 256 MiB while it runs, so
--workers bounds memory as well as CPU.

Example:
  echo '{"id":"1","fn":"generate_key"}' | cipherkit serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveWorkers int

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&serveWorkers, "workers", "w", 0, "Concurrent calls (default $CIPHERKIT_WORKERS or 2)")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.close()

	workers := e.cfg.Workers
	if serveWorkers > 0 {
		workers = serveWorkers
	}

	srv := bridge.NewServer(e.dispatcher, workers, e.logger)
	return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
}
