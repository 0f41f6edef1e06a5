package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jordolang/tunedl/internal/services"
	"github.com/jordolang/tunedl/internal/shared"
	tu "github.com/jordolang/tunedl/internal/testing"
)

func TestConfigCommand(t *testing.T) {
	t.Run("init creates config file from template", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})
		path := filepath.Join(t.TempDir(), "config.toml")

		cmd := configCommand(runner)
		if err := cmd.Run(context.Background(), []string{"config", "init", "--path", path}); err != nil {
			t.Fatalf("config init failed: %v", err)
		}

		tu.AssertFileExists(t, path)
		content := tu.MustReadFile(t, path)
		if !strings.Contains(content, "[general]") {
			t.Error("expected template to contain a [general] section")
		}
		if !strings.Contains(content, "[credentials.spotify]") {
			t.Error("expected template to contain a [credentials.spotify] section")
		}
		if !strings.Contains(output.String(), "Created") {
			t.Errorf("expected confirmation message, got %q", output.String())
		}
	})

	t.Run("init refuses to overwrite an existing file", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := shared.CreateConfigFile(path); err != nil {
			t.Fatalf("failed to seed config file: %v", err)
		}

		cmd := configCommand(runner)
		err := cmd.Run(context.Background(), []string{"config", "init", "--path", path})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("error = %v, want ErrInvalidArgument", err)
		}
	})

	t.Run("show redacts credentials", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Credentials.Spotify.ClientSecret = "very-secret"
		config.Credentials.AppleMusic.DeveloperToken = "dev-token"

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Config: config, Output: output})

		cmd := configCommand(runner)
		if err := cmd.Run(context.Background(), []string{"config", "show"}); err != nil {
			t.Fatalf("config show failed: %v", err)
		}

		result := output.String()
		if strings.Contains(result, "very-secret") || strings.Contains(result, "dev-token") {
			t.Error("expected credentials to be redacted")
		}
		if !strings.Contains(result, "********") {
			t.Error("expected masked placeholder in output")
		}
	})
}

func TestServicesCommand(t *testing.T) {
	t.Run("lists registered services", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{
			Output: output,
			Services: []services.StreamingService{
				&tu.MockStreamingService{ServiceName: "spotify"},
			},
		})

		cmd := servicesCommand(runner)
		if err := cmd.Run(context.Background(), []string{"services"}); err != nil {
			t.Fatalf("services failed: %v", err)
		}

		if !strings.Contains(output.String(), "spotify") {
			t.Errorf("expected spotify in output, got %q", output.String())
		}
	})

	t.Run("explains when nothing is configured", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		cmd := servicesCommand(runner)
		if err := cmd.Run(context.Background(), []string{"services"}); err != nil {
			t.Fatalf("services failed: %v", err)
		}

		if !strings.Contains(output.String(), "No services configured") {
			t.Errorf("expected hint for empty registry, got %q", output.String())
		}
	})
}
