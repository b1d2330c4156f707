package testsupport

import (
	"path/filepath"
	"testing"

	"subflow/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.CheckpointDir = filepath.Join(base, "checkpoints")
	cfgVal.Translation.APIKey = "test"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTargetLanguage sets the default target language on the test config.
func WithTargetLanguage(lang string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Job.TargetLanguage = lang
	}
}

// WithEncoder overrides the render encoder on the test config.
func WithEncoder(encoder string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Render.Encoder = encoder
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
