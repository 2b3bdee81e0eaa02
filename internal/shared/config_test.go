package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Backend.BaseURL != "http://localhost:8090" {
			t.Errorf("expected base URL http://localhost:8090, got %s", config.Backend.BaseURL)
		}
		if config.Backend.Timeout != 30*time.Second {
			t.Errorf("expected timeout 30s, got %v", config.Backend.Timeout)
		}
		if config.UI.FlashDelay != 5*time.Second {
			t.Errorf("expected flash delay 5s, got %v", config.UI.FlashDelay)
		}
		if config.UI.Fade != 600*time.Millisecond {
			t.Errorf("expected fade 600ms, got %v", config.UI.Fade)
		}
		if config.UI.Locale != "fr" {
			t.Errorf("expected locale fr, got %s", config.UI.Locale)
		}
		if config.Database.Path != "./ridex.db" {
			t.Errorf("expected database path ./ridex.db, got %s", config.Database.Path)
		}
		if len(config.Routes) != 2 {
			t.Errorf("expected 2 example routes, got %d", len(config.Routes))
		}
		if config.Server.Addr() != "127.0.0.1:8090" {
			t.Errorf("expected server addr 127.0.0.1:8090, got %s", config.Server.Addr())
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}
		if config.Backend.BaseURL != DefaultConfig().Backend.BaseURL {
			t.Errorf("created config base URL doesn't match default")
		}

		err = CreateConfigFile(configPath)
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument on second create, got %v", err)
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[backend]
base_url = "http://backend:9000"
timeout = "2s"
athlete_id = "42"

[ui]
locale = "en"

[[routes]]
id = "7"
name = "Alpe d'Huez"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Backend.BaseURL != "http://backend:9000" {
			t.Errorf("expected base URL http://backend:9000, got %s", config.Backend.BaseURL)
		}
		if config.Backend.Timeout != 2*time.Second {
			t.Errorf("expected timeout 2s, got %v", config.Backend.Timeout)
		}
		if config.Backend.RateLimit != 5 {
			t.Errorf("expected default rate limit to survive, got %v", config.Backend.RateLimit)
		}
		if config.UI.FlashDelay != 5*time.Second {
			t.Errorf("expected default flash delay to survive, got %v", config.UI.FlashDelay)
		}
		if len(config.Routes) != 1 || config.Routes[0].ID != "7" {
			t.Errorf("expected routes from file to replace defaults, got %+v", config.Routes)
		}
	})

	t.Run("LoadConfig rejects invalid values", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[backend]\ntimeout = \"-1s\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		t.Setenv(EnvBaseURL, "http://env:1234")
		t.Setenv(EnvAthleteID, "")

		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte(EnvAthleteID+"=99\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		os.Unsetenv(EnvAthleteID)

		config := DefaultConfig()
		config.ApplyEnv(envPath)

		if config.Backend.BaseURL != "http://env:1234" {
			t.Errorf("expected env base URL, got %s", config.Backend.BaseURL)
		}
		if config.Backend.AthleteID != "99" {
			t.Errorf("expected athlete id from .env, got %q", config.Backend.AthleteID)
		}
	})
}
