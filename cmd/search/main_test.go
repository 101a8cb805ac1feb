package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/formbricks/gallery/internal/models"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		query   string
		topK    int
		wantErr bool
	}{
		{name: "query only", args: []string{"red car"}, query: "red car", topK: 5},
		{name: "flag before query", args: []string{"-k", "3", "red car"}, query: "red car", topK: 3},
		{name: "flag after query", args: []string{"red car", "-k", "2"}, query: "red car", topK: 2},
		{name: "missing query", args: nil, wantErr: true},
		{name: "blank query", args: []string{"   "}, wantErr: true},
		{name: "zero k", args: []string{"red", "-k", "0"}, wantErr: true},
		{name: "extra argument", args: []string{"red", "blue"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, topK, err := parseArgs(tt.args, io.Discard)
			if tt.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.query, query)
			assert.Equal(t, tt.topK, topK)
		})
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer

	printResults(&buf, []models.ImageRecordWithScore{
		{ImageRecord: models.ImageRecord{Filename: "a_car.png", Description: strings.Repeat("x", 120)}, Similarity: 0.91234},
		{ImageRecord: models.ImageRecord{Filename: "b_sky.png", Description: "a blue sky"}, Similarity: 0.1},
	})

	out := buf.String()
	assert.Contains(t, out, "1. a_car.png - Similarity: 0.9123\n")
	assert.Contains(t, out, "   "+strings.Repeat("x", 100)+"...\n")
	assert.Contains(t, out, "2. b_sky.png - Similarity: 0.1000\n")
	assert.Contains(t, out, "   a blue sky\n")
}

func TestPrintResults_Empty(t *testing.T) {
	var buf bytes.Buffer

	printResults(&buf, []models.ImageRecordWithScore{})

	assert.Equal(t, "No matching images.\n", buf.String())
}

func TestRun_UsageError(t *testing.T) {
	var stderr bytes.Buffer

	code := run(nil, io.Discard, &stderr)

	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr.String(), "usage:")
}
