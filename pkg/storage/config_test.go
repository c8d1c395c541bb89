package storage_test

import (
	"strings"
	"testing"

	"github.com/trackerzenith/docpipe/pkg/storage"
)

func TestFinalizeDefaults(t *testing.T) {
	cfg := storage.Config{ConnectionString: "test-connection"}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != storage.ProviderAzure {
		t.Errorf("provider: got %s, want azure", cfg.Provider)
	}
	if cfg.ContainerName != "document-uploads" {
		t.Errorf("container_name: got %s, want document-uploads", cfg.ContainerName)
	}
	if cfg.MaxDownloadBytes() != 20<<20 {
		t.Errorf("max_download_size: got %d", cfg.MaxDownloadBytes())
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PROVIDER", "GCS")
	t.Setenv("TEST_CONTAINER", "receipts")
	t.Setenv("TEST_MAX", "5MB")

	env := &storage.Env{
		Provider:        "TEST_PROVIDER",
		ContainerName:   "TEST_CONTAINER",
		MaxDownloadSize: "TEST_MAX",
	}

	cfg := storage.Config{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Provider != storage.ProviderGCS {
		t.Errorf("provider: got %s, want gcs", cfg.Provider)
	}
	if cfg.ContainerName != "receipts" {
		t.Errorf("container_name: got %s, want receipts", cfg.ContainerName)
	}
	if cfg.MaxDownloadBytes() != 5<<20 {
		t.Errorf("max_download_size: got %d, want 5MB", cfg.MaxDownloadBytes())
	}
}

func TestFinalizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     storage.Config
		wantErr string
	}{
		{
			name:    "azure without credentials",
			cfg:     storage.Config{Provider: "azure"},
			wantErr: "connection_string or account_url required",
		},
		{
			name: "azure with account url",
			cfg:  storage.Config{Provider: "azure", AccountURL: "https://acct.blob.core.windows.net"},
		},
		{
			name: "gcs with ambient credentials",
			cfg:  storage.Config{Provider: "gcs"},
		},
		{
			name:    "invalid max_download_size",
			cfg:     storage.Config{Provider: "gcs", MaxDownloadSize: "lots"},
			wantErr: "invalid max_download_size",
		},
		{
			name:    "unknown provider",
			cfg:     storage.Config{Provider: "s3"},
			wantErr: "unknown provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Finalize(nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := storage.Config{
		Provider:         "azure",
		ContainerName:    "document-uploads",
		ConnectionString: "base-conn",
	}

	base.Merge(&storage.Config{ConnectionString: "overlay-conn", MaxDownloadSize: "1MB"})

	if base.ContainerName != "document-uploads" {
		t.Errorf("container_name should remain, got %s", base.ContainerName)
	}
	if base.ConnectionString != "overlay-conn" {
		t.Errorf("connection_string: got %s, want overlay-conn", base.ConnectionString)
	}
	if base.MaxDownloadSize != "1MB" {
		t.Errorf("max_download_size: got %s, want 1MB", base.MaxDownloadSize)
	}
}
