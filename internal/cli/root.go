// Package cli implements the haven command line: an interactive intake
// conversation and a one-shot summarizer, both running on in-memory stores.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/haven-intake/internal/adapters/llm"
	"github.com/PabloGalante/haven-intake/internal/app/intake"
	"github.com/PabloGalante/haven-intake/internal/config"
	"github.com/PabloGalante/haven-intake/internal/observability"
)

var (
	version = "dev"
	commit  = "unknown"
)

type rootOptions struct {
	logLevel string
	provider string
	seed     uint64
}

// NewRootCmd builds the command tree. Logs go to stderr so they never mix
// with the conversation on stdout.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "haven",
		Short: "Report harassment safely and anonymously",
		Long: `haven walks you through reporting a harassment incident.

It asks a few gentle questions, then turns your answers into a structured
summary you can keep private or share.

Quick Start:
  haven chat                         # Start a conversation
  haven summarize -f account.txt     # Summarize a written account
  echo "..." | haven summarize -o json`,
		Version:       version + " (commit: " + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			observability.Configure(cmd.ErrOrStderr(), observability.ParseLevel(opts.logLevel))
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.provider, "provider", "", "Generative backend (mock, gemini, vertex, openai, none); defaults to HAVEN_LLM_PROVIDER")
	root.PersistentFlags().Uint64Var(&opts.seed, "seed", 0, "Seed for fallback replies (0 = random)")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newChatCmd(opts), newSummarizeCmd(opts))
	return root
}

// engine builds an Engine from HAVEN_* config with the command line flags on top.
func (o *rootOptions) engine(ctx context.Context) (*intake.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.provider != "" {
		cfg.LLMProvider = o.provider
	}
	if o.seed != 0 {
		cfg.Seed = o.seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	completer, err := llm.NewFromConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []intake.Option{intake.WithTimeout(cfg.BackendTimeout)}
	if cfg.Seed != 0 {
		opts = append(opts, intake.WithRand(intake.NewRand(cfg.Seed)))
	}
	return intake.NewEngine(completer, opts...), nil
}
