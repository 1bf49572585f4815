package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/PabloGalante/haven-intake/internal/adapters/storage/memory"
	"github.com/PabloGalante/haven-intake/internal/app/conversation"
	"github.com/PabloGalante/haven-intake/internal/domain"
)

const maxLineBytes = 32 << 10

var (
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("135")).Bold(true)
	userPromptStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	messageStyle        = lipgloss.NewStyle().PaddingLeft(2).MarginBottom(1)
	summaryTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).Border(lipgloss.RoundedBorder()).Padding(0, 1)
	summaryMetaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	noticeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Report an incident through a short conversation",
		Long: `Start an intake conversation. After a few messages haven prepares a
summary and asks whether to keep it private or share it publicly.

Type /quit to leave at any time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(cmd.Context())
			if err != nil {
				return err
			}
			svc := conversation.NewService(engine, memory.NewSessionStore(), memory.NewMessageStore(), memory.NewReportStore())
			return runChat(cmd.Context(), svc, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runChat(ctx context.Context, svc *conversation.Service, in io.Reader, w io.Writer) error {
	started, err := svc.StartSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	printAssistant(w, started.Welcome.Text)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	for {
		fmt.Fprint(w, userPromptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		res, err := svc.SendMessage(ctx, conversation.SendMessageInput{
			SessionID: started.Session.ID,
			Text:      line,
		})
		if err != nil {
			return err
		}
		printAssistant(w, res.AgentMessage.Text)

		if res.Summary != nil {
			printAssistant(w, res.SummaryMessage.Text)
			printSummary(w, *res.Summary)
			return askVisibility(ctx, svc, started.Session.ID, scanner, w)
		}
	}
}

func askVisibility(ctx context.Context, svc *conversation.Service, id domain.SessionID, scanner *bufio.Scanner, w io.Writer) error {
	for {
		fmt.Fprint(w, userPromptStyle.Render("keep it private or share it publicly? [private/public]> "))
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}

		v := domain.Visibility(strings.ToLower(strings.TrimSpace(scanner.Text())))
		if !v.Valid() {
			continue
		}

		res, err := svc.ResolveSession(ctx, conversation.ResolveSessionInput{SessionID: id, Visibility: v})
		if err != nil {
			return err
		}

		if res.Report != nil {
			fmt.Fprintln(w, noticeStyle.Render("Your report was shared publicly. Reference: "+string(res.Report.ID)))
		} else {
			fmt.Fprintln(w, noticeStyle.Render("Your report was kept private. Nothing was stored."))
		}
		return nil
	}
}

func printAssistant(w io.Writer, text string) {
	fmt.Fprintln(w, assistantLabelStyle.Render("haven"))
	fmt.Fprintln(w, messageStyle.Render(text))
}

func printSummary(w io.Writer, s domain.ReportSummary) {
	fmt.Fprintln(w, summaryTitleStyle.Render(s.Title))
	fmt.Fprintln(w, summaryMetaStyle.Render(fmt.Sprintf("category: %s  severity: %s", s.Category, s.Severity)))
	fmt.Fprintln(w, messageStyle.Render(s.Summary))
	for _, p := range s.KeyPoints {
		fmt.Fprintln(w, "  • "+p)
	}
	fmt.Fprintln(w)
}
