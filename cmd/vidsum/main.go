package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	cli "github.com/urfave/cli/v3"

	"github.com/nguyentantai21042004/video-summary/internal/config"
	"github.com/nguyentantai21042004/video-summary/internal/history"
	"github.com/nguyentantai21042004/video-summary/internal/processor"
	"github.com/nguyentantai21042004/video-summary/internal/watcher"
)

func main() {
	app := &cli.Command{
		Name:  "vidsum",
		Usage: "Summarize videos with vision and speech models",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
		},
		Commands: []*cli.Command{
			summarizeCommand(),
			watchCommand(),
			historyCommand(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func summarizeCommand() *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize one video and write the reassembled output",
		ArgsUsage: "<video>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "frames-dir", Usage: "Directory for extracted frames (default from config)"},
			&cli.IntFlag{Name: "parts", Usage: "Number of segments (default from config)"},
			&cli.StringFlag{Name: "work-dir", Usage: "Directory for part files and reports (default from config)"},
			&cli.StringFlag{Name: "output", Usage: "Path of the reassembled video"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			videoPath := cmd.Args().First()
			if videoPath == "" {
				return cli.Exit("a video path is required", 2)
			}
			parts := int(cmd.Int("parts"))
			if parts < 0 {
				return cli.Exit("parts must not be negative", 2)
			}

			a, err := newApp(ctx, cmd.String("config"))
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.processor.Summarize(ctx, videoPath, processor.Options{
				NumParts:   parts,
				FramesDir:  cmd.String("frames-dir"),
				WorkDir:    cmd.String("work-dir"),
				OutputPath: cmd.String("output"),
			})
			if err != nil {
				return err
			}

			fmt.Println(result.Summary)
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Monitor the input folder and summarize new videos",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			a, err := newApp(ctx, cmd.String("config"))
			if err != nil {
				return err
			}
			defer a.Close()

			cfg, log := a.cfg, a.logger
			log.Info(ctx, "========================================")
			log.Info(ctx, "Video Summary Pipeline")
			log.Info(ctx, "========================================")
			log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
			log.Info(ctx, "Max Concurrent Processing: %d", cfg.Performance.MaxConcurrent)

			if err := ensureDirectories(cfg); err != nil {
				return err
			}

			w, err := watcher.New(cfg.Paths.Input, a.processor.Handle, log, watcher.Options{
				MaxConcurrent:  cfg.Performance.MaxConcurrent,
				RescanSchedule: cfg.Performance.RescanSchedule,
			})
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer w.Stop()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			errChan := make(chan error, 1)
			go func() {
				errChan <- w.Start(ctx)
			}()

			log.Info(ctx, "Monitoring: %s", cfg.Paths.Input)
			log.Info(ctx, "Output: %s", cfg.Paths.Output)
			log.Info(ctx, "Models: %s (%s / %s), speech: %s", cfg.LLM.Provider, cfg.LLM.VisionModel, cfg.LLM.TextModel, cfg.Speech.Provider)
			log.Info(ctx, "Press Ctrl+C to stop")

			select {
			case <-sigChan:
				log.Info(ctx, "Shutdown signal received")
			case err := <-errChan:
				if err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("watcher: %w", err)
				}
				return nil
			}

			log.Info(ctx, "Shutting down gracefully...")
			cancel()
			<-errChan
			log.Info(ctx, "Video Summary Pipeline stopped")
			return nil
		},
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum number of runs to show", Value: 10},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := config.Read(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.History.Path == "" {
				return cli.Exit("history.path is not configured", 2)
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(ctx, int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded.")
				return nil
			}
			for _, r := range runs {
				summarized := 0
				for _, s := range r.Segments {
					if s.Status == string(processor.StatusSummarized) {
						summarized++
					}
				}
				fmt.Printf("%s  %s  %-30s  %d/%d segments  %s\n",
					r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, filepath.Base(r.Source),
					summarized, len(r.Segments), r.Duration)
			}
			return nil
		},
	}
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Input,
		cfg.Paths.Output,
		cfg.Paths.Archived,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
