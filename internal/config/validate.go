package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.Model == "" {
		return errors.New("engine.model must be set")
	}
	if strings.ContainsAny(c.Engine.Model, "/\\") {
		return fmt.Errorf("engine.model %q must be a model name, not a path (models live in paths.models_dir)", c.Engine.Model)
	}
	if c.Engine.Language == "" {
		return errors.New("engine.language must be set")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic != "" && strings.TrimSpace(c.Notifications.NtfyServer) == "" {
		return errors.New("notifications.ntfy_server must be set when notifications.ntfy_topic is configured")
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}
