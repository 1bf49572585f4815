package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/haven-intake/internal/domain"
)

func newSummarizeCmd(opts *rootOptions) *cobra.Command {
	var (
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize a written account of an incident",
		Long: `Read an account from a file or stdin and print a structured summary.

Each non-empty line is treated as one message from the person reporting.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unsupported format %q (use yaml or json)", format)
			}

			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", file, err)
				}
				defer f.Close()
				in = f
			}

			history, err := readNarrative(in)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				return fmt.Errorf("no account to summarize")
			}

			engine, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}
			summary := engine.Summarize(cmd.Context(), history)

			return writeSummary(cmd.OutOrStdout(), summary, format)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the account from this file instead of stdin")
	cmd.Flags().StringVarP(&format, "output", "o", "yaml", "Output format (yaml, json)")
	return cmd
}

func readNarrative(r io.Reader) ([]*domain.Message, error) {
	var history []*domain.Message

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		history = append(history, &domain.Message{Author: domain.RoleUser, Text: line, Kind: domain.KindText})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read account: %w", err)
	}
	return history, nil
}

func writeSummary(w io.Writer, s domain.ReportSummary, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	return enc.Close()
}
