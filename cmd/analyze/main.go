// Command analyze submits one photo from disk and prints the analysis as JSON.
//
// Usage:
//
//	analyze [-locale fr-FR] [-v] photo.jpg
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go-skin-analyzer/internal/config"
	"go-skin-analyzer/internal/container"
	apperrors "go-skin-analyzer/internal/errors"
	"go-skin-analyzer/internal/logger"
	"go-skin-analyzer/internal/service"
)

func main() {
	locale := flag.String("locale", "", "locale sent with the submission (defaults to DEFAULT_LOCALE)")
	verbose := flag.Bool("v", false, "log to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze [-locale fr-FR] [-v] <photo>")
		os.Exit(2)
	}
	os.Exit(run(flag.Arg(0), *locale, *verbose))
}

func run(path, locale string, verbose bool) int {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration manquante. Veuillez contacter le support. (%v)\n", err)
		return 1
	}

	log := logger.Discard()
	if verbose {
		log = logger.New(os.Stderr, cfg.LogLevel)
	}

	c, err := container.NewContainer(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer c.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := c.Service().Analyze(ctx, service.AnalyzeInput{
		FileName:  filepath.Base(path),
		Data:      data,
		Locale:    locale,
		UserAgent: "go-skin-analyzer-cli",
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err != nil {
		body := map[string]string{"error": err.Error()}
		if appErr, ok := apperrors.As(err); ok {
			body["type"] = string(appErr.Type)
		}
		enc.Encode(body)
		return 1
	}
	enc.Encode(resp)
	return 0
}
