package stencil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.StoreCapacity != 100 {
		t.Errorf("DefaultConfig StoreCapacity = %d, want 100", config.StoreCapacity)
	}

	if config.LogLevel != "info" {
		t.Errorf("DefaultConfig LogLevel = %s, want info", config.LogLevel)
	}

	if config.MaxRenderDepth != 100 {
		t.Errorf("DefaultConfig MaxRenderDepth = %d, want 100", config.MaxRenderDepth)
	}

	if config.StrictMode {
		t.Errorf("DefaultConfig StrictMode = true, want false")
	}

	if config.DefaultTheme != "default" || config.DefaultLocale != "en" {
		t.Errorf("DefaultConfig theme/locale = %s/%s, want default/en", config.DefaultTheme, config.DefaultLocale)
	}

	if config.HistorySize != 50 {
		t.Errorf("DefaultConfig HistorySize = %d, want 50", config.HistorySize)
	}

	if err := config.Validate(); err != nil {
		t.Errorf("DefaultConfig is invalid: %v", err)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, config *Config)
	}{
		{
			name: "store capacity",
			envVars: map[string]string{
				"STENCIL_STORE_CAPACITY": "50",
			},
			check: func(t *testing.T, config *Config) {
				if config.StoreCapacity != 50 {
					t.Errorf("StoreCapacity = %d, want 50", config.StoreCapacity)
				}
			},
		},
		{
			name: "log level",
			envVars: map[string]string{
				"STENCIL_LOG_LEVEL": "DEBUG",
			},
			check: func(t *testing.T, config *Config) {
				if config.LogLevel != "debug" {
					t.Errorf("LogLevel = %s, want debug", config.LogLevel)
				}
			},
		},
		{
			name: "strict mode",
			envVars: map[string]string{
				"STENCIL_STRICT_MODE": "true",
			},
			check: func(t *testing.T, config *Config) {
				if !config.StrictMode {
					t.Errorf("StrictMode = false, want true")
				}
			},
		},
		{
			name: "multiple environment variables",
			envVars: map[string]string{
				"STENCIL_MAX_RENDER_DEPTH": "200",
				"STENCIL_DEFAULT_LOCALE":   "de-AT",
				"STENCIL_HISTORY_SIZE":     "0",
			},
			check: func(t *testing.T, config *Config) {
				if config.MaxRenderDepth != 200 {
					t.Errorf("MaxRenderDepth = %d, want 200", config.MaxRenderDepth)
				}
				if config.DefaultLocale != "de-AT" {
					t.Errorf("DefaultLocale = %s, want de-AT", config.DefaultLocale)
				}
				if config.HistorySize != 0 {
					t.Errorf("HistorySize = %d, want 0", config.HistorySize)
				}
			},
		},
		{
			name:    "no environment keeps defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, config *Config) {
				if config.StoreCapacity != 100 || config.DefaultTheme != "default" {
					t.Errorf("config = %+v, want defaults", config)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			config, err := LoadConfig("")
			if err != nil {
				t.Fatalf("LoadConfig() error: %v", err)
			}
			tt.check(t, config)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stencil.toml")
	content := `
store_capacity = 10
log_level = "warn"
default_theme = "dark"
strict_mode = true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if config.StoreCapacity != 10 || config.LogLevel != "warn" || config.DefaultTheme != "dark" || !config.StrictMode {
		t.Errorf("file values not applied: %+v", config)
	}
	if config.MaxRenderDepth != 100 {
		t.Errorf("MaxRenderDepth = %d, want 100 (default)", config.MaxRenderDepth)
	}

	// Environment overrides the file.
	t.Setenv("STENCIL_STORE_CAPACITY", "20")
	config, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if config.StoreCapacity != 20 {
		t.Errorf("StoreCapacity = %d, want 20", config.StoreCapacity)
	}

	// A missing file is skipped.
	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); err != nil {
		t.Errorf("LoadConfig(missing) error: %v", err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("invalid number", func(t *testing.T) {
		t.Setenv("STENCIL_STORE_CAPACITY", "lots")
		if _, err := LoadConfig(""); err == nil {
			t.Error("LoadConfig() returned nil, want error")
		}
	})

	t.Run("invalid log level", func(t *testing.T) {
		t.Setenv("STENCIL_LOG_LEVEL", "verbose")
		if _, err := LoadConfig(""); err == nil {
			t.Error("LoadConfig() returned nil, want error")
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		if err := os.WriteFile(path, []byte("store_capacity = ="), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("LoadConfig() returned nil, want error")
		}
	})
}

func TestNewConfigWithDefaults(t *testing.T) {
	overrides := &Config{
		StoreCapacity: 200,
		LogLevel:      "debug",
	}

	config := NewConfigWithDefaults(overrides)

	if config.StoreCapacity != 200 {
		t.Errorf("StoreCapacity = %d, want 200", config.StoreCapacity)
	}

	if config.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", config.LogLevel)
	}

	// Check that defaults are applied for unset fields
	if config.MaxRenderDepth != 100 {
		t.Errorf("MaxRenderDepth = %d, want 100 (default)", config.MaxRenderDepth)
	}

	if config.DefaultTheme != "default" || config.DefaultLocale != "en" {
		t.Errorf("theme/locale = %s/%s, want default/en", config.DefaultTheme, config.DefaultLocale)
	}

	if NewConfigWithDefaults(nil).StoreCapacity != 100 {
		t.Error("NewConfigWithDefaults(nil) should return the defaults")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		valid  bool
	}{
		{
			name:   "valid config",
			config: DefaultConfig(),
			valid:  true,
		},
		{
			name: "unbounded store",
			config: &Config{
				LogLevel:       "off",
				MaxRenderDepth: 1,
			},
			valid: true,
		},
		{
			name: "negative store capacity",
			config: &Config{
				StoreCapacity:  -1,
				LogLevel:       "info",
				MaxRenderDepth: 100,
			},
			valid: false,
		},
		{
			name: "invalid log level",
			config: &Config{
				StoreCapacity:  100,
				LogLevel:       "invalid",
				MaxRenderDepth: 100,
			},
			valid: false,
		},
		{
			name: "zero max render depth",
			config: &Config{
				StoreCapacity:  100,
				LogLevel:       "info",
				MaxRenderDepth: 0,
			},
			valid: false,
		},
		{
			name: "negative history size",
			config: &Config{
				LogLevel:       "info",
				MaxRenderDepth: 100,
				HistorySize:    -5,
			},
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() returned error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Validate() returned nil, want error")
			}
		})
	}
}
