package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/ironsheep/color-validator-mcp/internal/imaging"
	"github.com/ironsheep/color-validator-mcp/internal/matcher"
)

func TestFromEnv_Defaults(t *testing.T) {
	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}

	if c.LogLevel != "info" || c.LogDst != "stderr" {
		t.Errorf("logging defaults: %q %q", c.LogLevel, c.LogDst)
	}
	if c.DefaultTolerance != 3.0 {
		t.Errorf("DefaultTolerance: got %f", c.DefaultTolerance)
	}
	if c.Policy() != matcher.DefaultPolicy {
		t.Errorf("Policy: got %+v, want %+v", c.Policy(), matcher.DefaultPolicy)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("COLORVAL_LOG_LEVEL", "debug")
	t.Setenv("COLORVAL_WORKERS", "3")
	t.Setenv("COLORVAL_EXTRACT_METHOD", "kmeans")
	t.Setenv("COLORVAL_POLICY_STRICT_FACTOR", "0.8")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if c.LogLevel != "debug" || c.Workers != 3 || c.ExtractMethod != "kmeans" || c.StrictFactor != 0.8 {
		t.Errorf("environment not applied: %+v", c)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Setenv("COLORVAL_WORKERS", "many")
	if _, err := FromEnv(); err == nil {
		t.Error("FromEnv should fail for a non-numeric worker count")
	}
}

func TestLoad_Precedence(t *testing.T) {
	t.Setenv("COLORVAL_EXTRACT_COUNT", "7")
	t.Setenv("COLORVAL_DEFAULT_TOLERANCE", "4")

	env, err := FromEnv()
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	file := filepath.Join(dir, "colorval.toml")
	content := "default-tolerance = 2.5\n\n[extract]\nmethod = \"quantize\"\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	SetDefaults(v, env)
	found, err := ReadFile(v, file)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !found {
		t.Fatal("config file not found")
	}

	// Flags win over everything.
	v.Set(KeyLogLevel, "warn")

	c, err := Load(v)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.ExtractCount != 7 {
		t.Errorf("env value lost: ExtractCount %d", c.ExtractCount)
	}
	if c.DefaultTolerance != 2.5 {
		t.Errorf("file should override env: DefaultTolerance %f", c.DefaultTolerance)
	}
	if c.ExtractMethod != "quantize" {
		t.Errorf("file value lost: ExtractMethod %s", c.ExtractMethod)
	}
	if c.LogLevel != "warn" {
		t.Errorf("override lost: LogLevel %s", c.LogLevel)
	}
}

func TestReadFile_Missing(t *testing.T) {
	v := viper.New()
	found, err := ReadFile(v, filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if found {
		t.Error("found should be false")
	}
}

func TestReadFile_Malformed(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(file, []byte("this is = = not toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFile(viper.New(), file); err == nil {
		t.Error("ReadFile should fail for malformed TOML")
	}
}

func TestValidate(t *testing.T) {
	base, _ := FromEnv()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"zero tolerance", func(c *Config) { c.DefaultTolerance = 0 }},
		{"zero count", func(c *Config) { c.ExtractCount = 0 }},
		{"bad method", func(c *Config) { c.ExtractMethod = "octree" }},
		{"zero threshold", func(c *Config) { c.ExtractThreshold = 0 }},
		{"zero max size", func(c *Config) { c.ExtractMaxSize = 0 }},
		{"area over 100", func(c *Config) { c.AreaThreshold = 101 }},
		{"zero factor", func(c *Config) { c.LenientFactor = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate should fail")
			}
		})
	}
}

func TestConversions(t *testing.T) {
	c := Config{
		Workers:          0,
		ExtractCount:     4,
		ExtractMethod:    "k-means",
		ExtractThreshold: 30,
		ExtractMaxSize:   150,
	}

	opts := c.ExtractOptions()
	want := imaging.ExtractOptions{Method: imaging.MethodKMeans, Count: 4, Threshold: 30, MaxSize: 150}
	if opts.Method != want.Method || opts.Count != want.Count || opts.Threshold != want.Threshold || opts.MaxSize != want.MaxSize {
		t.Errorf("ExtractOptions: got %+v, want %+v", opts, want)
	}

	if c.WorkerCount() <= 0 {
		t.Error("WorkerCount should default to a positive value")
	}
	if c.StorePath() == "" {
		t.Error("StorePath should have a default")
	}
}
