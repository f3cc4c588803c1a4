package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the index",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp(GetConfig(), GetRootDir(), logger)
	if err != nil {
		return err
	}
	stats := a.index.Stats()

	if statusJSON {
		output, _ := json.MarshalIndent(stats, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Index:     %s\n", a.indexPath)
	fmt.Printf("Segments:  %d\n", stats.TotalDocuments)
	fmt.Printf("Empty:     %v\n", stats.IsEmpty)
	fmt.Printf("Metric:    %s\n", stats.Metric)
	if stats.Dimension > 0 {
		fmt.Printf("Dimension: %d\n", stats.Dimension)
	}
	fmt.Printf("Embedder:  %s/%s\n", a.cfg.Embedding.Provider, a.cfg.Embedding.Model)
	return nil
}
