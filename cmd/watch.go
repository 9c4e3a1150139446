package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arklib/ark/internal/config"
	"github.com/arklib/ark/internal/hashid"
	"github.com/arklib/ark/internal/index"
	"github.com/arklib/ark/internal/logging"
	"github.com/arklib/ark/internal/scanner"
	"github.com/arklib/ark/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [PATH]",
	Short: "Watch a directory for changes and keep its index live",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	level, _ := cmd.Flags().GetString("log-level")
	logger := logging.New(level)
	adapter := logging.Adapter{Logger: logger}

	cfg, err := config.Load(path, index.ArkDir)
	if err != nil {
		return err
	}

	var hasher hashid.Hasher
	switch cfg.Hasher {
	case "crc32":
		hasher = hashid.NewCRC32Hasher()
	case "blake3", "":
		hasher = hashid.NewBlake3Hasher()
	default:
		return fmt.Errorf("ark: unknown hasher %q in config", cfg.Hasher)
	}

	sc := scanner.New(hasher)
	sc.Logger = adapter
	sc.IgnorePatterns = cfg.IgnorePatterns

	events := make(chan watch.Event, 1)

	loop, err := watch.New(watch.Options{
		Root:    path,
		Hasher:  hasher,
		Scanner: sc,
		Logger:  adapter,
		Events:  events,
	})
	if err != nil {
		return err
	}
	defer loop.Close()

	logger.Info().
		Str("root", loop.Index().Root()).
		Str("resources", humanize.Comma(int64(loop.Index().Len()))).
		Str("total_size", humanize.Bytes(uint64(totalSize(loop.Index().Root(), loop.Index().Resources())))).
		Msg("watch started")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	for {
		select {
		case evt := <-events:
			printEvent(evt)
		case err := <-done:
			return err
		}
	}
}

func totalSize(root string, resources []index.Resource) int64 {
	var total int64
	for _, r := range resources {
		if info, err := os.Stat(filepath.Join(root, filepath.FromSlash(r.Path))); err == nil {
			total += info.Size()
		}
	}
	return total
}

func printEvent(evt watch.Event) {
	switch evt.Kind {
	case watch.KindUpdatedOne:
		fmt.Printf("updated file: %s\n", evt.Path)
	case watch.KindUpdatedAll:
		fmt.Printf("updated all: +%d -%d\n", len(evt.Update.Added), len(evt.Update.Removed))
	}
}
