package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pathbench/internal/engine"
	"github.com/oakwood-commons/pathbench/internal/store"
	"github.com/oakwood-commons/pathbench/pkg/core"
	"github.com/oakwood-commons/pathbench/pkg/loader"
	"github.com/oakwood-commons/pathbench/pkg/logger"
)

var errNoInput = errors.New("no input: pass a file path or '-' to read stdin")

// loadInput reads the dataset named by path; "-" reads the command's stdin.
// CSV files become an array of row objects.
func loadInput(cmd *cobra.Command, path string) (any, error) {
	lgr := *logger.FromContext(rootCtx)
	switch path {
	case "":
		return nil, errNoInput
	case "-":
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return loader.LoadRootBytesWithLogger(lgr, data)
	}
	data, err := loader.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	lgr.V(1).Info("input loaded", "file", path)
	return data, nil
}

// openWorkbench opens the configured store and restores the workspace.
// Keys that fail to load are logged and start empty.
func openWorkbench() (*core.Workbench, error) {
	st, err := store.Open(store.Driver(cfg.Store.Driver), cfg.Store.Path, cfg.Store.QuotaBytes)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	wb, err := core.New(
		core.WithStore(st),
		core.WithEvaluator(engine.New(engine.WithMaxDepth(cfg.Engine.MaxDepth))),
		core.WithRecentWindow(cfg.Analytics.RecentWindow),
		core.WithMemorySampling(cfg.Analytics.SampleMemory),
		core.WithLogger(*logger.FromContext(rootCtx)),
	)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	wb.Load(rootCtx)
	return wb, nil
}

// withWorkbench runs fn against an opened workbench and closes it afterwards.
func withWorkbench(fn func(wb *core.Workbench) error) error {
	wb, err := openWorkbench()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := wb.Close(); cerr != nil {
			logger.FromContext(rootCtx).Error(cerr, "failed to close workspace store")
		}
	}()
	return fn(wb)
}
