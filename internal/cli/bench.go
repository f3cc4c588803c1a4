package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ragqa/internal/domain"
	"ragqa/internal/usecase"
	"ragqa/internal/vectorindex"
)

var (
	benchQuery string
	benchTopK  int
	benchRuns  int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Measure retrieval latency and match quality for a query",
	Long: `Run one query against the index several times and report latency together
with a rough quality rating of the matches. Caching is bypassed so every run
embeds the query again.

Examples:
  ragqa bench -q "refund policy"
  ragqa bench -q "opening hours" -k 10 --runs 20`,
	RunE: runBench,
}

func init() {
	rootCmd.AddCommand(benchCmd)
	benchCmd.Flags().StringVarP(&benchQuery, "query", "q", "", "query to test (required)")
	benchCmd.Flags().IntVarP(&benchTopK, "top-k", "k", 10, "number of results")
	benchCmd.Flags().IntVar(&benchRuns, "runs", 5, "number of timed searches")
	benchCmd.MarkFlagRequired("query")
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg := *GetConfig()
	cfg.Retrieve.CacheSize = 0

	a, err := buildApp(&cfg, GetRootDir(), logger)
	if err != nil {
		return err
	}
	if a.index.IsEmpty() {
		return fmt.Errorf("no documents indexed. Run 'ragqa ingest' first")
	}
	if benchRuns <= 0 {
		benchRuns = 1
	}

	stats := a.index.Stats()
	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Segments indexed: %d\n", stats.TotalDocuments)
	fmt.Printf("Model: %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d, metric: %s\n\n", stats.Dimension, stats.Metric)
	fmt.Printf("Query: %q\n", benchQuery)
	fmt.Println(strings.Repeat("-", 70))

	var (
		results []domain.RetrievalResult
		total   time.Duration
		fastest time.Duration
	)
	for i := 0; i < benchRuns; i++ {
		start := time.Now()
		results, err = a.retrieve.Retrieve(cmd.Context(), benchQuery, benchTopK)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		elapsed := time.Since(start)
		total += elapsed
		if fastest == 0 || elapsed < fastest {
			fastest = elapsed
		}
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	cosine := a.index.Metric() == vectorindex.MetricCosine
	fmt.Printf("Top %d matches:\n\n", len(results))
	totalScore := 0.0
	for i, h := range usecase.Hits(results) {
		totalScore += h.Score
		preview := strings.ReplaceAll(h.Text, "\n", " ")
		if r := []rune(preview); len(r) > 150 {
			preview = string(r[:150]) + "..."
		}
		label := fmt.Sprintf("%.3f", h.Score)
		if cosine {
			label = rating(h.Score) + " " + label
		}
		fmt.Printf("%d. [%s] %s\n", i+1, label, h.Source)
		fmt.Printf("   %s\n\n", preview)
	}

	avg := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("METRICS:")
	fmt.Printf("  Mean latency:  %s over %d runs\n", (total / time.Duration(benchRuns)).Round(time.Microsecond), benchRuns)
	fmt.Printf("  Best latency:  %s\n", fastest.Round(time.Microsecond))
	fmt.Printf("  Average score: %.3f\n", avg)
	fmt.Printf("  Top-1 score:   %.3f\n", results[0].Score)
	if !cosine {
		// L2 distances have no fixed scale to rate against.
		return nil
	}

	switch {
	case avg > 0.5:
		fmt.Println("  Status: GOOD - semantic search working well")
	case avg > 0.3:
		fmt.Println("  Status: OK - results are somewhat related")
	default:
		fmt.Println("  Status: POOR - may need better embeddings or re-indexing")
	}
	return nil
}

// rating buckets a cosine similarity.
func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}
