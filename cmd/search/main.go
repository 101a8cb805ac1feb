// search runs a semantic query against the configured image record store and prints the
// ranked matches. Usage: search "<query>" [-k N]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/formbricks/gallery/internal/bootstrap"
	"github.com/formbricks/gallery/internal/config"
	"github.com/formbricks/gallery/internal/models"
	"github.com/formbricks/gallery/internal/observability"
	"github.com/formbricks/gallery/internal/service"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2

	descriptionPreviewLen = 100
)

var (
	errMissingQuery   = errors.New("missing query")
	errBlankQuery     = errors.New("query must not be blank")
	errInvalidTopK    = errors.New("-k must be positive")
	errUnexpectedArgs = errors.New("unexpected arguments")
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	query, topK, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprintln(stderr, `usage: search "<query>" [-k N]`)

		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "invalid configuration:", err)

		return exitFailure
	}

	logger := observability.NewLogger(stderr, cfg.LogLevel)
	ctx := context.Background()

	records, err := bootstrap.OpenRecordStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open record store", "error", err)

		return exitFailure
	}
	defer records.Close()

	gen, err := bootstrap.NewEmbeddingGenerator(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to create embedding generator", "error", err)

		return exitFailure
	}

	searchService := service.NewSearchService(service.SearchServiceParams{
		Embedder: gen,
		Repo:     records.Repo,
		Logger:   logger,
	})

	printResults(stdout, searchService.Search(ctx, query, topK))

	return exitSuccess
}

// parseArgs accepts the -k flag before or after the query.
func parseArgs(args []string, stderr io.Writer) (string, int, error) {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)

	topK := fs.Int("k", service.DefaultTopK, "number of results")

	if err := fs.Parse(args); err != nil {
		return "", 0, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return "", 0, errMissingQuery
	}

	query := rest[0]
	if err := fs.Parse(rest[1:]); err != nil {
		return "", 0, err
	}

	if fs.NArg() > 0 {
		return "", 0, fmt.Errorf("%w: %s", errUnexpectedArgs, strings.Join(fs.Args(), " "))
	}

	if strings.TrimSpace(query) == "" {
		return "", 0, errBlankQuery
	}

	if *topK <= 0 {
		return "", 0, errInvalidTopK
	}

	return query, *topK, nil
}

func printResults(w io.Writer, results []models.ImageRecordWithScore) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No matching images.")

		return
	}

	for i, r := range results {
		fmt.Fprintf(w, "%d. %s - Similarity: %.4f\n", i+1, r.Filename, r.Similarity)
		fmt.Fprintf(w, "   %s\n", truncate(r.Description, descriptionPreviewLen))
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}
