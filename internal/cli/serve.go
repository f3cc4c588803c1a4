package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ragqa/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve ingestion and question answering over HTTP.

Endpoints:
  POST /upload_documents   multipart field "files"
  POST /process_document   {"content": "...", "source": "..."}
  POST /query              {"question": "..."}
  GET  /status             {"total_documents": n, "is_empty": bool}
  GET  /health
  GET  /docs               OpenAPI documentation`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := buildApp(GetConfig(), GetRootDir(), logger)
	if err != nil {
		return err
	}
	answerUC, err := a.answerer()
	if err != nil {
		return err
	}

	sc := a.cfg.Server
	if serveAddr != "" {
		sc.ListenAddr = serveAddr
	}

	srv, err := server.New(server.Config{
		ListenAddr:     sc.ListenAddr,
		CORSOrigins:    sc.CORSOrigins,
		ReadTimeout:    sc.ReadTimeout,
		WriteTimeout:   sc.WriteTimeout,
		MaxUploadBytes: int64(sc.MaxUploadMB) << 20,
	}, server.Services{
		Ingest: a.ingest,
		Answer: answerUC,
		Index:  a.index,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server", "addr", sc.ListenAddr, "index", a.indexPath, "segments", a.index.Count())
	return srv.Start(ctx)
}
