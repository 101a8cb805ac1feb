package config

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		shouldSet    bool
		want         string
	}{
		{
			name:         "returns environment variable when set",
			key:          "TEST_VAR",
			defaultValue: "default",
			envValue:     "custom",
			shouldSet:    true,
			want:         "custom",
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_VAR_MISSING",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    false,
			want:         "default",
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_VAR_EMPTY",
			defaultValue: "default",
			envValue:     "",
			shouldSet:    true,
			want:         "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnv(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnv() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		shouldSet    bool
		want         int
	}{
		{
			name:         "returns environment variable as int when set with valid integer",
			key:          "TEST_INT_VAR",
			defaultValue: 100,
			envValue:     "200",
			shouldSet:    true,
			want:         200,
		},
		{
			name:         "returns default when environment variable not set",
			key:          "TEST_INT_VAR_MISSING",
			defaultValue: 100,
			envValue:     "",
			shouldSet:    false,
			want:         100,
		},
		{
			name:         "returns default when environment variable is empty string",
			key:          "TEST_INT_VAR_EMPTY",
			defaultValue: 100,
			envValue:     "",
			shouldSet:    true,
			want:         100,
		},
		{
			name:         "returns default when environment variable is not a valid integer",
			key:          "TEST_INT_VAR_INVALID",
			defaultValue: 100,
			envValue:     "not_a_number",
			shouldSet:    true,
			want:         100,
		},
		{
			name:         "handles negative integers",
			key:          "TEST_INT_VAR_NEGATIVE",
			defaultValue: 100,
			envValue:     "-50",
			shouldSet:    true,
			want:         -50,
		},
		{
			name:         "handles zero",
			key:          "TEST_INT_VAR_ZERO",
			defaultValue: 100,
			envValue:     "0",
			shouldSet:    true,
			want:         0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.envValue)
			}

			got := getEnvAsInt(tt.key, tt.defaultValue)
			if got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	if got := getEnvAsDuration("TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("getEnvAsDuration() = %v, want 90s", got)
	}

	t.Setenv("TEST_DURATION_BAD", "soon")
	if got := getEnvAsDuration("TEST_DURATION_BAD", time.Second); got != time.Second {
		t.Errorf("getEnvAsDuration() = %v, want default 1s", got)
	}
}

func TestGetEnvAsBoolAndFloat(t *testing.T) {
	t.Setenv("TEST_BOOL", "false")
	if getEnvAsBool("TEST_BOOL", true) {
		t.Error("getEnvAsBool() = true, want false")
	}

	if !getEnvAsBool("TEST_BOOL_MISSING", true) {
		t.Error("getEnvAsBool() = false, want default true")
	}

	t.Setenv("TEST_FLOAT", "2.5")
	if got := getEnvAsFloat("TEST_FLOAT", 1); got != 2.5 {
		t.Errorf("getEnvAsFloat() = %v, want 2.5", got)
	}
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("TEST_LIST", " https://a.example , ,https://b.example")

	got := getEnvAsList("TEST_LIST", []string{"*"})
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("getEnvAsList() = %v", got)
	}

	t.Setenv("TEST_LIST_BLANK", " , ")
	if got := getEnvAsList("TEST_LIST_BLANK", []string{"*"}); len(got) != 1 || got[0] != "*" {
		t.Errorf("getEnvAsList() = %v, want default", got)
	}
}

// clearEnv blanks every variable Load reads so host settings cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()

	for _, key := range []string{
		"PORT", "LOG_LEVEL", "RECORD_STORE", "BLOB_STORE", "INGESTION_QUEUE", "INGESTION_WORKERS",
		"EMBEDDING_PROVIDER", "CAPTION_PROVIDER", "CAPTION_API_KEY", "SEARCH_DEFAULT_TOP_K",
		"MINIO_ACCESS_KEY", "MINIO_SECRET_KEY", "CORS_ALLOWED_ORIGINS", "IMAGE_MAX_DIMENSION",
		"INGESTION_RATE_LIMIT", "EMBEDDING_DIMENSIONS", "SEARCH_QUERY_CACHE_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Port = %v, want 8000", cfg.Port)
	}

	if cfg.RecordStore != RecordStoreFile || cfg.BlobStore != BlobStoreLocal || cfg.IngestionQueue != QueueLocal {
		t.Errorf("backends = %s/%s/%s, want file/local/local", cfg.RecordStore, cfg.BlobStore, cfg.IngestionQueue)
	}

	if cfg.EmbeddingProvider != EmbeddingProviderOllama || cfg.CaptionProvider != CaptionProviderOllama {
		t.Errorf("providers = %s/%s, want ollama/ollama", cfg.EmbeddingProvider, cfg.CaptionProvider)
	}

	if cfg.SearchDefaultTopK != 5 {
		t.Errorf("SearchDefaultTopK = %d, want 5", cfg.SearchDefaultTopK)
	}

	if cfg.CaptionTimeout != 120*time.Second {
		t.Errorf("CaptionTimeout = %v, want 120s", cfg.CaptionTimeout)
	}

	if cfg.ImageMaxDimension != 1024 {
		t.Errorf("ImageMaxDimension = %d, want 1024", cfg.ImageMaxDimension)
	}

	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("CORSAllowedOrigins = %v, want [*]", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "3000")
	t.Setenv("RECORD_STORE", "Postgres")
	t.Setenv("INGESTION_QUEUE", "river")
	t.Setenv("SEARCH_DEFAULT_TOP_K", "10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %v, want 3000", cfg.Port)
	}

	if cfg.RecordStore != RecordStorePostgres {
		t.Errorf("RecordStore = %v, want postgres", cfg.RecordStore)
	}

	if cfg.SearchDefaultTopK != 10 {
		t.Errorf("SearchDefaultTopK = %d, want 10", cfg.SearchDefaultTopK)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown record store", map[string]string{"RECORD_STORE": "mongo"}},
		{"unknown embedding provider", map[string]string{"EMBEDDING_PROVIDER": "word2vec"}},
		{"river without postgres", map[string]string{"INGESTION_QUEUE": "river"}},
		{"minio without credentials", map[string]string{"BLOB_STORE": "minio"}},
		{"openai captions without key", map[string]string{"CAPTION_PROVIDER": "openai"}},
		{"zero workers", map[string]string{"INGESTION_WORKERS": "0"}},
		{"top_k too large", map[string]string{"SEARCH_DEFAULT_TOP_K": "500"}},
		{"negative rate limit", map[string]string{"INGESTION_RATE_LIMIT": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := Load(); err == nil {
				t.Error("Load() error = nil, want validation error")
			}
		})
	}
}
