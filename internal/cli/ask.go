package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askQuestion string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Answer a question from the indexed documents",
	Long: `Retrieve the most relevant segments and ask the configured language model
to answer from them. With an empty index a fixed "no documents" answer is
printed instead.

Examples:
  ragqa ask -q "How do refunds work?"
  ragqa ask -q "Who is the contact person?" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question to answer (required)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	askCmd.MarkFlagRequired("question")
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := buildApp(GetConfig(), GetRootDir(), logger)
	if err != nil {
		return err
	}
	answerUC, err := a.answerer()
	if err != nil {
		return err
	}

	answer, err := answerUC.Answer(cmd.Context(), askQuestion)
	if err != nil {
		return err
	}

	if askJSON {
		output, _ := json.MarshalIndent(answer, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Println(answer.Answer)
	if len(answer.Sources) > 0 {
		fmt.Printf("\nSources:\n")
		for i, s := range answer.Sources {
			fmt.Printf("  [%d] %s\n", i+1, s.Title)
		}
	}
	if answer.Usage != nil {
		fmt.Printf("\nTokens: %d prompt, %d completion\n", answer.Usage.PromptTokens, answer.Usage.CompletionTokens)
	}
	return nil
}
