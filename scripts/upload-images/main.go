// Package main provides a CLI tool that uploads every image in a directory to a running
// gallery server through POST /api/upload.
//
// Usage:
//
//	go run ./scripts/upload-images -dir /path/to/photos -api-url http://localhost:8000
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// Config holds the CLI configuration
type Config struct {
	Dir        string
	APIBaseURL string
	DelayMS    int
	DryRun     bool
}

// Stats tracks upload statistics
type Stats struct {
	TotalFiles      int
	Skipped         int
	SuccessfulPosts int
	FailedPosts     int
}

type uploadResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
}

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".bmp": true,
}

func main() {
	cfg := parseFlags()

	if cfg.Dir == "" {
		fmt.Println("Error: -dir is required")
		flag.Usage()
		os.Exit(1)
	}

	fmt.Printf("Gallery image upload\n")
	fmt.Printf("   API URL: %s\n", cfg.APIBaseURL)
	fmt.Printf("   Directory: %s\n", cfg.Dir)
	fmt.Printf("   Delay: %dms between requests\n", cfg.DelayMS)
	if cfg.DryRun {
		fmt.Printf("   DRY RUN MODE - No actual API calls will be made\n")
	}
	fmt.Println()

	files, err := listImages(cfg.Dir)
	if err != nil {
		fmt.Printf("Error reading directory: %v\n", err)
		os.Exit(1)
	}

	stats := uploadAll(newClient(), cfg, files)

	fmt.Println()
	fmt.Println("Upload Summary")
	fmt.Printf("   Total files:           %d\n", stats.TotalFiles)
	fmt.Printf("   Skipped (not images):  %d\n", stats.Skipped)
	fmt.Printf("   Successfully uploaded: %d\n", stats.SuccessfulPosts)
	fmt.Printf("   Failed:                %d\n", stats.FailedPosts)
	fmt.Println()

	if stats.FailedPosts > 0 {
		os.Exit(1)
	}
}

func parseFlags() Config {
	cfg := Config{}

	flag.StringVar(&cfg.Dir, "dir", "", "Directory containing images to upload (required)")
	flag.StringVar(&cfg.APIBaseURL, "api-url", "http://localhost:8000", "Gallery API base URL")
	flag.IntVar(&cfg.DelayMS, "delay", 100, "Delay in milliseconds between uploads")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "List the files without uploading them")

	flag.Parse()

	return cfg
}

func newClient() *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 60 * time.Second
	client.Logger = nil

	return client.StandardClient()
}

// listImages returns the regular files directly under dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(files)

	return files, nil
}

func isImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

func uploadAll(client *http.Client, cfg Config, files []string) Stats {
	stats := Stats{}

	fmt.Println("Uploading images...")
	fmt.Println()

	for _, path := range files {
		stats.TotalFiles++

		if !isImage(path) {
			if cfg.DryRun {
				fmt.Printf("   [SKIP] %s\n", filepath.Base(path))
			}
			stats.Skipped++
			continue
		}

		if cfg.DryRun {
			fmt.Printf("   [DRY] %s\n", filepath.Base(path))
			stats.SuccessfulPosts++
			continue
		}

		resp, err := uploadImage(client, cfg.APIBaseURL, path)
		if err != nil {
			fmt.Printf("   x %s: %v\n", filepath.Base(path), err)
			stats.FailedPosts++
		} else {
			fmt.Printf("   ok %s -> %s\n", filepath.Base(path), resp.ID)
			stats.SuccessfulPosts++
		}

		time.Sleep(time.Duration(cfg.DelayMS) * time.Millisecond)
	}

	return stats
}

func uploadImage(client *http.Client, baseURL, path string) (*uploadResponse, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", http.DetectContentType(data))

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, err
	}

	if _, err := part.Write(data); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var out uploadResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &out, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
