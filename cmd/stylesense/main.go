// Command stylesense checks C and C++ whitespace style from the command line
// and as a language server.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"stylesense/internal/config"
	"stylesense/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	verbose      bool
	workspaceDir string
	configPath   string
	noColor      bool

	// Resolved by PersistentPreRunE.
	workspaceRoot string
	cfgFile       string
	cfg           *config.Config
	logger        *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "stylesense",
	Short: "StyleSense - whitespace style checker for C and C++",
	Long: `StyleSense checks C and C++ sources for whitespace style problems:
spacing around assignments and binary operators, after keywords and commas,
before opening braces, and trailing whitespace.

Run "stylesense check" in a project, or "stylesense lsp" from an editor.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		root := workspaceDir
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve workspace: %w", err)
			}
			root = wd
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("failed to resolve workspace: %w", err)
		}
		workspaceRoot = abs

		cfgFile = configPath
		if cfgFile == "" {
			cfgFile = filepath.Join(workspaceRoot, config.FileName)
		}

		if cmd == initCmd {
			// init must work even when the existing file is broken.
			cfg = config.DefaultConfig()
		} else {
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%s: %w", cfgFile, err)
			}
		}

		logger, err = logging.Initialize(cfg.Logging, verbose)
		if err != nil {
			return err
		}
		logger.Debug("configuration loaded",
			zap.String("workspace", workspaceRoot),
			zap.String("config", cfgFile))
		logging.BootDebug("stylesense %s: %s in %s", version, cmd.Name(), workspaceRoot)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspaceDir, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <workspace>/"+config.FileName+")")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(initCmd)
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if errors.Is(err, ErrViolationsFound) {
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, "stylesense:", err)
	os.Exit(2)
}
