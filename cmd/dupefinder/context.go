package main

import (
	"io"
	"os"
	"strings"
	"sync"

	internal "github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/config"
	"github.com/Nubzie187/Micro-Porject-2-Dupe-Finder/dupefinder/filesystem"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type commandContext struct {
	configFlag    *string
	logLevelFlag  *string
	logFormatFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag, logFormatFlag *string) *commandContext {
	return &commandContext{
		configFlag:    configFlag,
		logLevelFlag:  logLevelFlag,
		logFormatFlag: logFormatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			cfg.Log.Level = *c.logLevelFlag
		}
		if c.logFormatFlag != nil && *c.logFormatFlag != "" {
			cfg.Log.Format = *c.logFormatFlag
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to the command's stderr so stdout stays clean for reports.
func (c *commandContext) logger(cmd *cobra.Command) zerolog.Logger {
	cfg, err := c.ensureConfig()
	if err != nil {
		return internal.GetLogger()
	}
	w := cmd.ErrOrStderr()
	return internal.NewLogger(cfg.Log.Level, resolveLogFormat(cfg.Log.Format, w), w)
}

func (c *commandContext) filesystem(cmd *cobra.Command) (*filesystem.FileSystem, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return filesystem.New(cfg, c.logger(cmd))
}

// resolveLogFormat turns "auto" into console output on a terminal and JSON
// everywhere else.
func resolveLogFormat(format string, w io.Writer) string {
	if format != "auto" && format != "" {
		return format
	}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return "console"
		}
	}
	return "json"
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
