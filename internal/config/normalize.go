package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeJob()
	c.normalizeRender()
	c.normalizeLogging()
	if c.Workflow.EventBufferSize <= 0 {
		c.Workflow.EventBufferSize = defaultEventBufferSize
	}
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = ExpandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.OutputDir, err = ExpandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CheckpointDir) == "" {
		c.Paths.CheckpointDir = defaultCheckpointDir
	}
	if c.Paths.CheckpointDir, err = ExpandPath(c.Paths.CheckpointDir); err != nil {
		return fmt.Errorf("paths.checkpoint_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeJob() {
	c.Job.TargetLanguage = strings.ToLower(strings.TrimSpace(c.Job.TargetLanguage))
	c.Job.CaptionLanguage = strings.ToLower(strings.TrimSpace(c.Job.CaptionLanguage))
	c.Job.DownloadFormat = strings.TrimSpace(c.Job.DownloadFormat)
	if c.Job.DownloadFormat == "" {
		c.Job.DownloadFormat = defaultDownloadFormat
	}
}

func (c *Config) normalizeRender() {
	c.Render.Encoder = strings.ToLower(strings.TrimSpace(c.Render.Encoder))
	if c.Render.Encoder == "" {
		c.Render.Encoder = defaultEncoder
	}
	if strings.TrimSpace(c.Render.FontName) == "" {
		c.Render.FontName = defaultFontName
	}
	if c.Render.FontSize <= 0 {
		c.Render.FontSize = defaultFontSize
	}
	if strings.TrimSpace(c.Render.PrimaryColor) == "" {
		c.Render.PrimaryColor = defaultPrimaryColor
	}
	if strings.TrimSpace(c.Render.OutlineColor) == "" {
		c.Render.OutlineColor = defaultOutlineColor
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
