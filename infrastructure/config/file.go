package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileOverlay is the YAML document accepted by CONFIG_FILE. Unset keys leave
// the environment value in place.
type fileOverlay struct {
	LogLevel                string   `yaml:"log_level"`
	AllowedOrigins          []string `yaml:"allowed_origins"`
	StaticDir               string   `yaml:"static_dir"`
	HelixURL                string   `yaml:"helix_url"`
	PDFAPIURL               string   `yaml:"pdf_api_url"`
	RelatedFetchConcurrency int      `yaml:"related_fetch_concurrency"`
	GraphCacheTTL           string   `yaml:"graph_cache_ttl"`
	UploadDelay             string   `yaml:"upload_delay"`
	AuthRateLimit           int      `yaml:"auth_rate_limit"`
	Voice                   struct {
		ModelProvider string `yaml:"model_provider"`
		Model         string `yaml:"model"`
		Provider      string `yaml:"provider"`
		VoiceID       string `yaml:"voice_id"`
	} `yaml:"voice"`
}

// ApplyFile overlays the YAML file at path onto c
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var o fileOverlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.LogLevel, o.LogLevel)
	setString(&c.StaticDir, o.StaticDir)
	setString(&c.HelixURL, o.HelixURL)
	setString(&c.PDFAPIURL, o.PDFAPIURL)
	setString(&c.VoiceModelProvider, o.Voice.ModelProvider)
	setString(&c.VoiceModel, o.Voice.Model)
	setString(&c.VoiceProvider, o.Voice.Provider)
	setString(&c.VoiceID, o.Voice.VoiceID)
	if len(o.AllowedOrigins) > 0 {
		c.AllowedOrigins = o.AllowedOrigins
	}
	if o.RelatedFetchConcurrency > 0 {
		c.RelatedFetchConcurrency = o.RelatedFetchConcurrency
	}
	if o.AuthRateLimit > 0 {
		c.AuthRateLimit = o.AuthRateLimit
	}
	if err := setDuration(&c.GraphCacheTTL, o.GraphCacheTTL); err != nil {
		return fmt.Errorf("graph_cache_ttl: %w", err)
	}
	if err := setDuration(&c.UploadDelay, o.UploadDelay); err != nil {
		return fmt.Errorf("upload_delay: %w", err)
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}
