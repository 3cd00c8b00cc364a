package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	API        APIConfig        `toml:"api"`
	Board      BoardConfig      `toml:"board"`
	TaskFields TaskFieldsConfig `toml:"task_fields"`
	Logging    LoggingConfig    `toml:"logging"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type APIConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type BoardConfig struct {
	Lanes []LaneConfig `toml:"lanes"`
}

type LaneConfig struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

type TaskFieldsConfig struct {
	ShowPriority  bool `toml:"show_priority"`
	ShowDueDate   bool `toml:"show_due_date"`
	ShowTags      bool `toml:"show_tags"`
	ShowAssignees bool `toml:"show_assignees"`
}

type LoggingConfig struct {
	Level   string `toml:"level"`
	DevFile string `toml:"dev_file"`
}

func defaultLanes() []LaneConfig {
	return []LaneConfig{
		{ID: "todo", Name: "To Do"},
		{ID: "in-progress", Name: "In Progress"},
		{ID: "done", Name: "Done"},
	}
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		API: APIConfig{
			BaseURL:        "",
			TimeoutSeconds: 15,
		},
		Board: BoardConfig{
			Lanes: defaultLanes(),
		},
		TaskFields: TaskFieldsConfig{
			ShowPriority:  true,
			ShowDueDate:   true,
			ShowTags:      true,
			ShowAssignees: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.API.TimeoutSeconds < 0 {
		return fmt.Errorf("api.timeout_seconds must be >= 0, got %d", c.API.TimeoutSeconds)
	}
	if base := strings.TrimSpace(c.API.BaseURL); base != "" {
		if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
			return fmt.Errorf("api.base_url must be an http(s) URL: %q", base)
		}
	}

	if len(c.Board.Lanes) == 0 {
		return errors.New("board.lanes must include at least one lane")
	}
	seenLaneID := map[string]struct{}{}
	for idx := range c.Board.Lanes {
		lane := c.Board.Lanes[idx]
		lane.ID = strings.TrimSpace(strings.ToLower(lane.ID))
		lane.Name = strings.TrimSpace(lane.Name)
		if lane.ID == "" {
			return fmt.Errorf("board.lanes[%d].id is required", idx)
		}
		if lane.Name == "" {
			return fmt.Errorf("board.lanes[%d].name is required", idx)
		}
		if _, ok := seenLaneID[lane.ID]; ok {
			return fmt.Errorf("board.lanes[%d].id is duplicated: %s", idx, lane.ID)
		}
		seenLaneID[lane.ID] = struct{}{}
		c.Board.Lanes[idx] = lane
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
