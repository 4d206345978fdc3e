package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show recorded calls",
	Long: `Show calls recorded with --audit, newest first.

Entries hold the operation name, outcome and timing only. Passwords,
keys and text are never recorded.

Examples:
  cipherkit audit
  cipherkit audit --op decrypt --limit 50`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old audit entries",
	Long: `Delete audit entries older than the given age.

Example:
  cipherkit audit prune --older-than 720h`,
	Args: cobra.NoArgs,
	RunE: runAuditPrune,
}

var auditClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the audit database",
	Long: `Delete the audit database. Other files in the data directory are
left alone.

Example:
  cipherkit audit clear`,
	Args: cobra.NoArgs,
	RunE: runAuditClear,
}

var (
	auditLimit     int
	auditOperation string
	auditOlderThan time.Duration
)

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditPruneCmd)
	auditCmd.AddCommand(auditClearCmd)
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 20, "Maximum entries to show")
	auditCmd.Flags().StringVar(&auditOperation, "op", "", "Only show this operation")
	auditPruneCmd.Flags().DurationVar(&auditOlderThan, "older-than", 30*24*time.Hour, "Age of entries to delete")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AuditExists() {
		return fmt.Errorf("no audit database at %s: run commands with --audit first", cfg.AuditDBPath)
	}

	s, err := openAuditStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if auditOperation != "" {
		logs, err := s.GetAuditLogsByOperation(auditOperation, auditLimit)
		if err != nil {
			return err
		}
		return printJSON(cmd, logs)
	}

	logs, err := s.GetAuditLogs(auditLimit)
	if err != nil {
		return err
	}
	return printJSON(cmd, logs)
}

func runAuditPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AuditExists() {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to prune")
		return nil
	}

	s, err := openAuditStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	removed, err := s.PruneAuditLogs(time.Now().Add(-auditOlderThan))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d audit entries\n", removed)
	return nil
}

func runAuditClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.RemoveAudit(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Audit database removed")
	return nil
}
