package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/russellromney/cipherkit/internal/bridge"
	"github.com/russellromney/cipherkit/internal/config"
	"github.com/russellromney/cipherkit/internal/logging"
	"github.com/russellromney/cipherkit/internal/store"
)

// env bundles what a command needs; close releases the logger and audit store
type env struct {
	cfg        *config.Config
	logger     *zap.Logger
	store      store.Store
	dispatcher *bridge.Dispatcher
}

// dispatcherOptions are applied to every Dispatcher the commands build
var dispatcherOptions []bridge.Option

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if dataDirFlag != "" {
		cfg = config.NewWithDataDir(dataDirFlag)
	} else if cfg, err = config.New(); err != nil {
		return nil, err
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	return cfg, nil
}

func openAuditStore(cfg *config.Config) (store.Store, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, err
	}
	s, err := store.NewSQLiteStore(cfg.AuditDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit store: %w", err)
	}
	return s, nil
}

func newEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, os.Stderr)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger}
	opts := append([]bridge.Option(nil), dispatcherOptions...)
	if auditFlag {
		s, err := openAuditStore(cfg)
		if err != nil {
			return nil, err
		}
		e.store = s
		opts = append(opts, bridge.WithAudit(s))
	}
	e.dispatcher = bridge.NewDispatcher(logger, opts...)
	return e, nil
}

func (e *env) close() {
	if e.store != nil {
		e.store.Close()
	}
	_ = e.logger.Sync()
}

// run executes one boundary call and prints its result as JSON
func (e *env) run(cmd *cobra.Command, fn string, args any) (any, error) {
	req, err := bridge.NewRequest(fn, args)
	if err != nil {
		return nil, err
	}
	resp := e.dispatcher.Call(cmd.Context(), req)
	if !resp.OK {
		return nil, resp.Error
	}
	return resp.Result, printJSON(cmd, resp.Result)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readPassword returns the --password flag if it was given, otherwise prompts
// on the terminal. Piped input is read as a single line.
func readPassword(cmd *cobra.Command, flagValue, prompt string, confirm bool) (string, error) {
	if cmd.Flags().Changed("password") {
		return flagValue, nil
	}

	in := cmd.InOrStdin()
	f, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fd := int(f.Fd())

	errOut := cmd.ErrOrStderr()
	fmt.Fprint(errOut, prompt)
	password1, err := term.ReadPassword(fd)
	fmt.Fprintln(errOut)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if !confirm {
		return string(password1), nil
	}

	fmt.Fprint(errOut, "Confirm password: ")
	password2, err := term.ReadPassword(fd)
	fmt.Fprintln(errOut)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if string(password1) != string(password2) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(password1), nil
}
