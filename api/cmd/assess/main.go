// Command assess runs one under-eye analysis on a photo from a directory.
//
//	assess -dir ./photos -list
//	assess -dir ./photos -device face.jpg -engine gpt -schema v1
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"eye-check/api/internal/assess/types"
	"eye-check/api/internal/bootstrap"
	"eye-check/api/internal/capture"
	"eye-check/api/internal/config"
	"eye-check/api/internal/logging"
	"eye-check/api/internal/report"
	"eye-check/api/internal/session"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := config.Load()

	fs := flag.NewFlagSet("assess", flag.ContinueOnError)
	dir := fs.String("dir", ".", "directory with face photos")
	device := fs.String("device", "", "photo file name inside -dir (default: first image)")
	engine := fs.String("engine", cfg.DefaultEngine, "gemini | gpt")
	schema := fs.String("schema", cfg.DefaultSchema, "v1 | v2")
	key := fs.String("key", "", "vendor API key (default: from env)")
	list := fs.Bool("list", false, "list photos and exit")
	asJSON := fs.Bool("json", false, "print the assessment as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()
	cam := capture.NewDirCamera(*dir)

	if *list {
		devices, err := cam.ListDevices(ctx)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, d := range devices {
			fmt.Println(d.ID)
		}
		return 0
	}

	// CLI не держит кэш: один кадр, один запуск
	cfg.DatabaseURL, cfg.RedisAddr = "", ""
	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer app.Close()

	sc, err := types.ParseSchema(*schema)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	s := session.New(app.Service, cam)
	if err := s.Configure(ctx, session.Settings{LLMName: *engine, APIKey: *key, Schema: sc, Device: *device}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer s.Reset() //nolint:errcheck

	runCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	out, err := s.Capture(runCtx)
	if err != nil {
		logger.Debug("capture failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "assess:", err)
		if errors.Is(err, types.ErrBadInput) {
			return 2
		}
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return 0
	}
	fmt.Println(report.Render(out))
	return 0
}
