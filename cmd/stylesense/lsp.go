package main

import (
	"context"
	"errors"

	"stylesense/internal/lsp"
	"stylesense/internal/rules"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Run the language server on stdio",
	Long: `Runs the StyleSense language server over stdin/stdout. Editors start it
as "stylesense lsp". Logs go to stderr or to logging.file.

Without --workspace the workspace comes from the client's rootUri.`,
	Args: cobra.NoArgs,
	RunE: runLSP,
}

func runLSP(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	srv, err := lsp.NewServer(lsp.Options{
		Workspace:  workspaceDir,
		ConfigPath: configPath,
		Config:     cfg,
		Registry:   rules.Default(),
		Version:    version,
	})
	if err != nil {
		return err
	}

	logger.Info("starting language server", zap.String("version", version))
	err = srv.ServeStdio(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("language server interrupted")
		return nil
	}
	return err
}
