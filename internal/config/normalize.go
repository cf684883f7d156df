package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeEngine(); err != nil {
		return err
	}
	c.normalizeMixing()
	c.normalizeNotifications()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ModelsDir) == "" {
		c.Paths.ModelsDir = defaultModelsDir
	}
	if c.Paths.ModelsDir, err = expandPath(c.Paths.ModelsDir); err != nil {
		return fmt.Errorf("paths.models_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEngine() error {
	var err error
	if bin := strings.TrimSpace(c.Engine.Binary); bin != "" && strings.ContainsAny(bin, "/~") {
		if c.Engine.Binary, err = expandPath(bin); err != nil {
			return fmt.Errorf("engine.binary: %w", err)
		}
	} else {
		c.Engine.Binary = bin
	}
	if root := strings.TrimSpace(c.Engine.DevRoot); root != "" {
		if c.Engine.DevRoot, err = expandPath(root); err != nil {
			return fmt.Errorf("engine.dev_root: %w", err)
		}
	} else {
		c.Engine.DevRoot = ""
	}
	c.Engine.Model = strings.TrimSpace(c.Engine.Model)
	if c.Engine.Model == "" {
		c.Engine.Model = defaultEngineModel
	}
	c.Engine.Language = strings.ToLower(strings.TrimSpace(c.Engine.Language))
	if c.Engine.Language == "" {
		c.Engine.Language = defaultEngineLanguage
	}
	return nil
}

func (c *Config) normalizeMixing() {
	c.Mixing.FFmpegBinary = strings.TrimSpace(c.Mixing.FFmpegBinary)
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("SCRIBE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	c.Notifications.NtfyServer = strings.TrimSpace(strings.TrimRight(c.Notifications.NtfyServer, "/"))
	if c.Notifications.NtfyServer == "" {
		c.Notifications.NtfyServer = defaultNtfyServer
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.StagingRetentionHours < 0 {
		c.Workflow.StagingRetentionHours = 0
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
