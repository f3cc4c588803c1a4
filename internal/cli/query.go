package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ragqa/internal/usecase"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Show the segments that best match a question",
	Long: `Retrieve the top-k segments for a question without calling a language model.
Scores are cosine similarities (higher is closer) or L2 distances (lower is
closer) depending on index.metric.

Examples:
  ragqa query -q "refund policy"
  ragqa query -q "opening hours" --top-k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := buildApp(GetConfig(), GetRootDir(), logger)
	if err != nil {
		return err
	}

	if a.index.IsEmpty() {
		return fmt.Errorf("no documents indexed. Run 'ragqa ingest' first")
	}

	results, err := a.retrieve.Retrieve(cmd.Context(), queryText, queryTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	hits := usecase.Hits(results)

	if queryJSON {
		output, _ := json.MarshalIndent(hits, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(hits), queryText)
	for i, h := range hits {
		source := h.Source
		if source == "" {
			source = usecase.UnknownSource
		}
		fmt.Printf("--- [%d] %s (score: %.3f) ---\n", i+1, source, h.Score)
		// Truncate long text for display
		text := []rune(h.Text)
		if len(text) > 500 {
			text = append(text[:500], []rune("...")...)
		}
		fmt.Println(string(text))
		fmt.Println()
	}
	return nil
}
