package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragqa/internal/tui"
)

var chatTimeout time.Duration

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().DurationVar(&chatTimeout, "timeout", 2*time.Minute, "per-question timeout")
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := buildApp(GetConfig(), GetRootDir(), logger)
	if err != nil {
		return err
	}
	answerUC, err := a.answerer()
	if err != nil {
		return err
	}

	summary := fmt.Sprintf("%d segments in %s, model %s", a.index.Count(), a.indexPath, a.cfg.LLM.Model)
	if _, err := tea.NewProgram(tui.New(answerUC, summary, chatTimeout), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	return nil
}
