// Package main provides the SignalDesk CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NivraSD/SignalDesk-sub005/internal/config"
	"github.com/NivraSD/SignalDesk-sub005/internal/gateway"
	"github.com/NivraSD/SignalDesk-sub005/internal/logging"
	"github.com/NivraSD/SignalDesk-sub005/internal/orchestrator"
)

var (
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "signaldesk",
	Short: "SignalDesk - conversational PR-campaign assistant",
	Long: `SignalDesk is a conversational assistant for PR campaigns.

Free-text input is classified into a consultation mode each turn, routed to
the matching generation feature (strategic planning, content generation,
media intelligence), and the results land both inline in the conversation
and in your workspace.

Run without arguments to start the interactive chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		logger, err = logging.New(level)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run [text]",
	Short: "Process a single turn and print the reply and work items",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd.Context(), strings.Join(args, " "))
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and generation backend health",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDoctor(cmd.Context())
	},
}

func init() {
	// Assigned here rather than in the composite literal to avoid an
	// initialization cycle between rootCmd and runInteractiveChat.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "signaldesk.yaml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(doctorCmd)
}

// runOneShot processes one turn against stdout sinks.
func runOneShot(ctx context.Context, text string) error {
	gen, err := gateway.New(ctx, cfg.Gateway, logger)
	if err != nil {
		return err
	}

	printer := newPrinterSinks(os.Stdout)
	orch, err := orchestrator.New(orchestrator.Config{
		Generator:  gen,
		Transcript: printer,
		Workspace:  printer,
		QueueSize:  cfg.Chat.QueueSize,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer orch.Close()

	orch.ProcessTurn(ctx, text)
	return nil
}

// runDoctor reports config and backend health.
func runDoctor(ctx context.Context) error {
	fmt.Printf("%s %s\n", cfg.Name, cfg.Version)
	fmt.Printf("provider: %s\n", cfg.Gateway.Provider)
	fmt.Printf("base URL: %s\n\n", cfg.Gateway.BaseURL)

	gen, err := gateway.New(ctx, cfg.Gateway, logger)
	if err != nil {
		return err
	}

	statuses := gateway.CheckProviders(ctx, []gateway.Generator{gen})
	fmt.Print(gateway.Describe(statuses))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
