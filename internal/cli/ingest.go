package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragqa/internal/adapter/fs"
	"ragqa/internal/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest files or directories into the index",
	Long: `Extract, segment and embed documents, then add them to the index.
Directories are walked using the include/exclude globs from the config.
The index is stored in .rag/index.db within the root directory unless
index.path says otherwise.

Examples:
  ragqa ingest .                   # Ingest the current directory
  ragqa ingest docs/ faq.md        # Ingest a directory and a single file`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{GetRootDir()}
	}

	a, err := buildApp(GetConfig(), GetRootDir(), logger)
	if err != nil {
		return err
	}

	var dirs []string
	var files []domain.File
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("path does not exist: %w", err)
		}
		if info.IsDir() {
			dirs = append(dirs, path)
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", arg, err)
		}
		files = append(files, domain.File{Name: filepath.Base(path), Data: data, ModTime: info.ModTime()})
	}

	before := a.index.Count()
	processed, added := 0, 0
	var warnings []string

	walker := fs.NewWalker(a.cfg.Index.Includes, a.cfg.Index.Excludes)
	for _, dir := range dirs {
		fmt.Printf("Scanning %s...\n", dir)
		result, err := a.ingest.IngestDir(cmd.Context(), dir, walker, newProgress("Ingesting"))
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		processed += result.FilesProcessed
		added += result.SegmentsAdded
		for _, e := range result.Errors {
			warnings = append(warnings, fmt.Sprintf("%s: %s", e.File, e.Error))
		}
	}

	if len(files) > 0 {
		result, err := a.ingest.Ingest(cmd.Context(), files)
		if err != nil {
			return fmt.Errorf("ingestion failed: %w", err)
		}
		processed += result.FilesProcessed
		added += result.SegmentsAdded
		for _, e := range result.Errors {
			warnings = append(warnings, fmt.Sprintf("%s: %s", e.File, e.Error))
		}
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Files processed: %d\n", processed)
	fmt.Printf("  Segments added:  %d\n", added)
	fmt.Printf("  Index size:      %d (was %d)\n", a.index.Count(), before)

	if len(warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	fmt.Printf("\nIndex stored at: %s\n", a.indexPath)
	return nil
}

// newProgress returns a progress callback that lazily creates a bar once
// the total is known.
func newProgress(label string) func(processed, total int, currentFile string) {
	var bar *progressbar.ProgressBar
	var barMu sync.Mutex
	var startTime time.Time

	return func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		_ = bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] ETA: %s", label, formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
