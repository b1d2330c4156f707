package config

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJob(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateJob() error {
	if c.Job.TargetLanguage == "" {
		return errors.New("job.target_language must be set")
	}
	if _, err := language.Parse(c.Job.TargetLanguage); err != nil {
		return fmt.Errorf("job.target_language %q is not a valid language tag: %w", c.Job.TargetLanguage, err)
	}
	if c.Job.CaptionLanguage != "" {
		if _, err := language.Parse(c.Job.CaptionLanguage); err != nil {
			return fmt.Errorf("job.caption_language %q is not a valid language tag: %w", c.Job.CaptionLanguage, err)
		}
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.Model == "" {
		return errors.New("transcription.model must be set")
	}
	if c.Transcription.MaxNoSpeechProb < 0 || c.Transcription.MaxNoSpeechProb > 1 {
		return errors.New("transcription.max_no_speech_prob must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

// TargetLanguageTag returns the canonical language tag for translation.
func (c *Config) TargetLanguageTag() (language.Tag, error) {
	return language.Parse(c.Job.TargetLanguage)
}
