// file: cmd/root_test.go
// version: 2.0.0
// guid: 7eae8d0c-7fda-4f45-8f73-5d1e0c7c9f1a

package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jdfalk/bookclub/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func saveCmdGlobals(t *testing.T) {
	t.Helper()
	origCfgFile := cfgFile
	origEnvFile := envFile
	origDBPath := databasePath
	origConfig := config.AppConfig
	t.Cleanup(func() {
		cfgFile = origCfgFile
		envFile = origEnvFile
		databasePath = origDBPath
		config.AppConfig = origConfig
		viper.Reset()
	})
}

func TestInitConfigCreatesDirectories(t *testing.T) {
	saveCmdGlobals(t)
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "db", "test.pebble")

	viper.Reset()
	cfgFile = filepath.Join(tempDir, "config.yaml")
	envFile = ""
	databasePath = dbPath

	initConfig()

	if _, err := os.Stat(filepath.Dir(dbPath)); err != nil {
		t.Fatalf("expected database directory to exist: %v", err)
	}
}

func TestInitConfigUsesHomeConfig(t *testing.T) {
	saveCmdGlobals(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".bookclub.yaml")
	content := "site:\n  name: Tuesday Readers\ndefault_book:\n  title: Middlemarch\n  author: George Eliot\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	t.Setenv("HOME", tempDir)
	viper.Reset()
	cfgFile = ""
	envFile = ""
	databasePath = ""

	initConfig()

	if config.AppConfig.SiteName != "Tuesday Readers" {
		t.Fatalf("expected site name from home config, got %q", config.AppConfig.SiteName)
	}
	if config.AppConfig.DefaultBook.Title != "Middlemarch" || config.AppConfig.DefaultBook.Author != "George Eliot" {
		t.Fatalf("unexpected default book: %+v", config.AppConfig.DefaultBook)
	}
}

func TestInitConfigLoadsEnvFile(t *testing.T) {
	saveCmdGlobals(t)
	tempDir := t.TempDir()
	envPath := filepath.Join(tempDir, "test.env")
	if err := os.WriteFile(envPath, []byte("BOOKCLUB_SITE_NAME=Dotenv Society\n"), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("BOOKCLUB_SITE_NAME") })

	t.Setenv("HOME", tempDir)
	viper.Reset()
	cfgFile = ""
	envFile = envPath
	databasePath = ""

	initConfig()

	if config.AppConfig.SiteName != "Dotenv Society" {
		t.Fatalf("expected site name from env file, got %q", config.AppConfig.SiteName)
	}
}

func TestInitConfigEnvironmentWinsOverEnvFile(t *testing.T) {
	saveCmdGlobals(t)
	tempDir := t.TempDir()
	envPath := filepath.Join(tempDir, "test.env")
	if err := os.WriteFile(envPath, []byte("BOOKCLUB_SITE_NAME=Dotenv Society\n"), 0o644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}

	t.Setenv("HOME", tempDir)
	t.Setenv("BOOKCLUB_SITE_NAME", "Exported Society")
	viper.Reset()
	cfgFile = ""
	envFile = envPath
	databasePath = ""

	initConfig()

	if config.AppConfig.SiteName != "Exported Society" {
		t.Fatalf("expected exported variable to win, got %q", config.AppConfig.SiteName)
	}
}

func TestInitConfigMissingEnvFileIsIgnored(t *testing.T) {
	saveCmdGlobals(t)
	tempDir := t.TempDir()

	t.Setenv("HOME", tempDir)
	viper.Reset()
	cfgFile = ""
	envFile = filepath.Join(tempDir, "absent.env")
	databasePath = ""

	initConfig()

	if config.AppConfig.SiteName != "The Literary Society" {
		t.Fatalf("expected default site name, got %q", config.AppConfig.SiteName)
	}
}

func newServeFlagsCmd() *cobra.Command {
	c := &cobra.Command{Use: "serve"}
	c.Flags().String("port", "8080", "")
	c.Flags().String("host", "localhost", "")
	c.Flags().String("read-timeout", "15s", "")
	c.Flags().String("write-timeout", "15s", "")
	c.Flags().String("idle-timeout", "60s", "")
	return c
}

func TestServerConfigFromFlags(t *testing.T) {
	saveCmdGlobals(t)
	config.AppConfig.Host = "0.0.0.0"
	config.AppConfig.Port = "9000"

	c := newServeFlagsCmd()
	if err := c.Flags().Set("port", "9191"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if err := c.Flags().Set("read-timeout", "2s"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}

	cfg, err := serverConfigFromFlags(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("expected host from config, got %q", cfg.Host)
	}
	if cfg.Port != "9191" {
		t.Errorf("expected port flag to win, got %q", cfg.Port)
	}
	if cfg.ReadTimeout != 2*time.Second {
		t.Errorf("expected read timeout 2s, got %v", cfg.ReadTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("expected default idle timeout, got %v", cfg.IdleTimeout)
	}
}

func TestServerConfigFromFlagsRejectsBadDuration(t *testing.T) {
	saveCmdGlobals(t)
	c := newServeFlagsCmd()
	if err := c.Flags().Set("write-timeout", "soon"); err != nil {
		t.Fatalf("failed to set flag: %v", err)
	}
	if _, err := serverConfigFromFlags(c); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestSetCommandRequiresFlags(t *testing.T) {
	for _, name := range []string{"title", "author"} {
		flag := setCmd.Flags().Lookup(name)
		if flag == nil {
			t.Fatalf("expected --%s flag", name)
		}
		if _, ok := flag.Annotations[cobra.BashCompOneRequiredFlag]; !ok {
			t.Errorf("expected --%s to be required", name)
		}
	}
}
