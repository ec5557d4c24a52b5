package main

import (
	"errors"
	"fmt"
	"os"

	"stylesense/internal/config"
	"stylesense/internal/rules"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrConfigExists is returned by init when the config file is already there.
var ErrConfigExists = errors.New("config file already exists (use --force to overwrite)")

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default " + config.FileName + " to the workspace",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(cfgFile); err == nil && !initForce {
			return fmt.Errorf("%s: %w", cfgFile, ErrConfigExists)
		}

		c := config.DefaultConfig()
		for _, rule := range rules.Default().All() {
			c.SetRule(rule.Name(), rule.DefaultEnabled(), rule.DefaultSeverity().String())
		}
		if err := c.Save(cfgFile); err != nil {
			return err
		}
		logger.Info("wrote config", zap.String("path", cfgFile))
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgFile)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}
