package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/extgraph/analyzer"
	"github.com/viant/extgraph/inspector/graph"
	"github.com/viant/extgraph/inspector/repository"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [dir]",
		Short: "Index a package directory and print its class graph",
		Long:  "Index a package directory and print its class graph.\nWithout dir the package enclosing the working directory is indexed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			logger := commandLogger(cmd, s)
			dir, err := packageDir(cmd.Context(), args, logger)
			if err != nil {
				return err
			}
			if err = runIndex(cmd.Context(), dir, s, logger, cmd.OutOrStdout()); err != nil {
				logger.Error("indexing failed", "err", err)
				return err
			}
			return nil
		},
	}
	addIndexFlags(cmd)
	return cmd
}

// packageDir returns the explicit directory argument or the package root enclosing the working directory
func packageDir(ctx context.Context, args []string, logger *log.Logger) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	project, err := repository.New().DetectProject(ctx, cwd)
	if err != nil {
		return "", err
	}
	logger.Debug("detected package", "path", project.RootPath, "name", project.Name, "type", project.Type, "version", project.Version)
	return project.RootPath, nil
}

func runIndex(ctx context.Context, dir string, s *settings, logger *log.Logger, stdout io.Writer, opts ...analyzer.Option) error {
	started := time.Now()
	index, err := analyzer.Analyze(ctx, dir, &s.Config, logger, opts...)
	if err != nil {
		return err
	}
	data, err := graph.NewEmitter(s.Format).Emit(index)
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	if err = writeOutput(ctx, s.Output, data, stdout); err != nil {
		return err
	}
	logger.Info("indexed", "path", dir, "files", index.Files.Len(), "classes", len(index.Classes()), "elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

func writeOutput(ctx context.Context, location string, data []byte, stdout io.Writer) error {
	if location == "" || location == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if !filepath.IsAbs(location) {
		abs, err := filepath.Abs(location)
		if err != nil {
			return err
		}
		location = abs
	}
	if err := afs.New().Upload(ctx, location, 0o644, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	return nil
}
