package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds logscope's tunables.
type Config struct {
	ChunkSize      int           // bytes per reserve/commit step
	MaxBufferBytes int           // engine buffer ceiling; zero is unlimited
	Encoding       string        // WHATWG label used to decode lines
	LogFile        string        // diagnostic log destination; empty discards
	Tick           time.Duration // viewer refresh cadence
}

const (
	defaultConfigPath = "~/.config/logscope/config.toml"
	defaultChunkSize  = 4 << 20
	defaultEncoding   = "utf-8"
	defaultTick       = 250 * time.Millisecond
	minChunkSize      = 4 << 10

	// LogEnv overrides log_file when set.
	LogEnv = "LOGSCOPE_LOG"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ChunkSize: defaultChunkSize,
		Encoding:  defaultEncoding,
		Tick:      defaultTick,
		LogFile:   logFileFromEnv(""),
	}
}

// Load locates and parses the config file, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		ChunkSize      int    `toml:"chunk_size"`
		MaxBufferBytes int    `toml:"max_buffer_bytes"`
		Encoding       string `toml:"encoding"`
		LogFile        string `toml:"log_file"`
		TickMS         int    `toml:"tick_ms"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if raw.ChunkSize > 0 {
		cfg.ChunkSize = max(raw.ChunkSize, minChunkSize)
	}
	if raw.MaxBufferBytes > 0 {
		cfg.MaxBufferBytes = raw.MaxBufferBytes
	}
	if enc := strings.TrimSpace(raw.Encoding); enc != "" {
		cfg.Encoding = strings.ToLower(enc)
	}
	if raw.TickMS > 0 {
		cfg.Tick = time.Duration(raw.TickMS) * time.Millisecond
	}
	cfg.LogFile = logFileFromEnv(raw.LogFile)

	return cfg, nil
}

func logFileFromEnv(fromFile string) string {
	path := strings.TrimSpace(fromFile)
	if env := strings.TrimSpace(os.Getenv(LogEnv)); env != "" {
		path = env
	}
	if path == "" {
		return ""
	}
	return mustExpand(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
