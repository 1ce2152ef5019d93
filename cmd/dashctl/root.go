package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/expense-admin/internal/config"
	"github.com/garyjia/expense-admin/internal/container"
	"github.com/garyjia/expense-admin/pkg/utils"
)

// app carries what every subcommand needs once the root has set it up
type app struct {
	configPath string
	assumeYes  bool
	logLevel   string

	cfg       *config.Config
	logger    *zap.Logger
	container *container.Container
	session   *container.Session

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "dashctl",
		Short:         "Drive the expense admin screens from a terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (YAML); environment and .env are always read")
	cmd.PersistentFlags().BoolVarP(&a.assumeYes, "yes", "y", false, "Answer yes to confirmation prompts")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level written to stderr")

	cmd.AddCommand(
		newLOVCmd(a),
		newExpenseCmd(a),
		newHistoryCmd(a),
		newUsersCmd(a),
		newAttendanceCmd(a),
	)
	return cmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := utils.NewCLILogger(a.logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	s, err := c.NewSession(cfg.API.Token, cfg.Session.Actor())
	if err != nil {
		return err
	}

	a.cfg, a.logger, a.container, a.session = cfg, logger, c, s
	return nil
}

// flushNotices prints the session's pending notices to stderr
func (a *app) flushNotices() {
	if a.session == nil {
		return
	}
	for _, n := range a.session.Inbox.Drain() {
		fmt.Fprintf(a.stderr, "[%s] %s\n", n.Level, n.Message)
	}
}

func (a *app) close() {
	if a.container != nil {
		_ = a.container.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Confirm asks on the terminal unless --yes was given
func (a *app) Confirm(_ context.Context, prompt string) bool {
	if a.assumeYes {
		return true
	}
	fmt.Fprintf(a.stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func execute() int {
	a := &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	defer a.close()

	err := newRootCmd(a).Execute()
	a.flushNotices()
	if err != nil {
		fmt.Fprintf(a.stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute())
}
