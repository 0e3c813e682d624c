package configs

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"GoTrackerAI/app/interactions"
	"GoTrackerAI/app/sessions"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	LLM         LLMConfig         `yaml:"llm" validate:"required"`
	Database    DatabaseConfig    `yaml:"database"`
	AzureDevOps AzureDevOpsConfig `yaml:"azure_devops" validate:"required"`
	Keywords    KeywordsConfig    `yaml:"keywords"`
	Dispatch    DispatchConfig    `yaml:"dispatch"`
	Sessions    SessionsConfig    `yaml:"sessions"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
	Model   string `yaml:"model" validate:"required"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AzureDevOpsConfig struct {
	BaseURL       string `yaml:"base_url" validate:"omitempty,url"`
	Organization  string `yaml:"organization" validate:"required"`
	Project       string `yaml:"project" validate:"required"`
	PAT           string `yaml:"pat" validate:"required"`
	IterationPath string `yaml:"iteration_path" validate:"required"`
}

type KeywordsConfig struct {
	Approval  string `yaml:"approval"`
	Rejection string `yaml:"rejection"`
}

type DispatchConfig struct {
	Workers   int `yaml:"workers" validate:"omitempty,min=1"`
	QueueSize int `yaml:"queue_size" validate:"omitempty,min=1"`
}

type SessionsConfig struct {
	Window int `yaml:"window" validate:"omitempty,min=1"`
}

// LoadConfig reads the YAML file, expands ${ENV} references and validates
// the result. Missing optional fields fall back to defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read configs file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "./data/database.db"
	}
	if c.Keywords.Approval == "" {
		c.Keywords.Approval = interactions.DefaultApprovalKeyword
	}
	if c.Keywords.Rejection == "" {
		c.Keywords.Rejection = interactions.DefaultRejectionKeyword
	}
	if c.Dispatch.Workers == 0 {
		c.Dispatch.Workers = 4
	}
	if c.Dispatch.QueueSize == 0 {
		c.Dispatch.QueueSize = 32
	}
	if c.Sessions.Window == 0 {
		c.Sessions.Window = sessions.DefaultWindow
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configs: %w", err)
	}
	return nil
}
