// caption normalizes an image and prints the description produced by the configured
// captioning model. Usage: caption <image path>
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/formbricks/gallery/internal/bootstrap"
	"github.com/formbricks/gallery/internal/config"
	"github.com/formbricks/gallery/internal/imaging"
	"github.com/formbricks/gallery/internal/observability"
	"github.com/formbricks/gallery/internal/service"
)

const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

var errEmptyCaption = errors.New("captioner returned an empty description")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderr, "usage: caption <image path>")

		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "invalid configuration:", err)

		return exitFailure
	}

	logger := observability.NewLogger(stderr, cfg.LogLevel)

	captioner, err := bootstrap.NewCaptioner(cfg)
	if err != nil {
		logger.Error("Failed to create captioner", "error", err)

		return exitFailure
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.CaptionTimeout)
	defer cancel()

	description, err := describeFile(ctx, captioner, args[0], cfg.ImageMaxDimension, logger)
	if err != nil {
		logger.Error("Failed to caption image", "path", args[0], "error", err)

		return exitFailure
	}

	fmt.Fprintln(stdout, description)

	return exitSuccess
}

// describeFile captions the image at path. Bytes that cannot be decoded are sent as-is.
func describeFile(ctx context.Context, captioner service.Captioner, path string, maxDim int, logger *slog.Logger) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	normalized, err := imaging.Normalize(data, maxDim)
	if err != nil {
		logger.Warn("image could not be normalized, sending original bytes", "path", path, "error", err)

		normalized = data
	}

	description, err := captioner.Describe(ctx, normalized)
	if err != nil {
		return "", fmt.Errorf("describe image: %w", err)
	}

	description = strings.TrimSpace(description)
	if description == "" {
		return "", errEmptyCaption
	}

	return description, nil
}
