package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ontomodel/internal/definitions"
	"ontomodel/internal/ontology"
)

var watchPattern string

// watchCmd re-applies definitions files whenever they change
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Re-apply definitions files when they change",
	Long: `Watches a directory tree and, after each change to a matching definitions
file settles, saves its terms and rebuilds its model. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchPattern, "pattern", "p", "**/*.yaml", "Definitions files to watch, relative to dir")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	svc := ontology.NewService(s, newValidator())
	b := newBuilder(s)
	out := cmd.OutOrStdout()

	w, err := definitions.NewWatcher(args[0], watchPattern, cfg.GetDebounce(), func(_ context.Context, path string) error {
		f, err := definitions.Load(path)
		if err != nil {
			return err
		}
		report, built, err := definitions.Sync(svc, b, f)
		if report != nil {
			printReport(out, report)
		}
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
			return err
		}
		fmt.Fprintf(out, "  model: %s\n", built.ModelPath)
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("Watching definitions", zap.String("dir", args[0]), zap.String("pattern", watchPattern))
	fmt.Fprintf(out, "Watching %s for %s (Ctrl-C to stop)\n", args[0], watchPattern)

	<-sigCh
	logger.Info("Received shutdown signal")
	stats := w.Stats()
	fmt.Fprintf(out, "Stopped: %d reloads, %d errors\n", stats.Reloads, stats.Errors)
	return nil
}
