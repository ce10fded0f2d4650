package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port       string
	DBPath     string
	LLMURL     string
	LLMModel   string
	LLMAPIKey  string
	LLMTimeout time.Duration
	Timezone   string
	LogLevel   string
	RateLimit  int

	// Tokens maps bearer token -> actor name.
	Tokens map[string]string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:      getEnv("JOURNAL_PORT", "8080"),
		DBPath:    getEnv("JOURNAL_DB_PATH", ""),
		LLMURL:    getEnv("JOURNAL_LLM_URL", "http://localhost:11434"),
		LLMModel:  getEnv("JOURNAL_LLM_MODEL", "qwen2.5:7b"),
		LLMAPIKey: getEnv("JOURNAL_LLM_API_KEY", ""),
		Timezone:  getEnv("JOURNAL_TIMEZONE", "UTC"),
		LogLevel:  getEnv("JOURNAL_LOG_LEVEL", "info"),
	}

	timeout, err := time.ParseDuration(getEnv("JOURNAL_LLM_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("parsing JOURNAL_LLM_TIMEOUT: %w", err)
	}
	cfg.LLMTimeout = timeout

	limit, err := strconv.Atoi(getEnv("JOURNAL_RATE_LIMIT", "60"))
	if err != nil {
		return nil, fmt.Errorf("parsing JOURNAL_RATE_LIMIT: %w", err)
	}
	cfg.RateLimit = limit

	tokens, err := parseTokens(getEnv("JOURNAL_TOKENS", ""))
	if err != nil {
		return nil, err
	}
	cfg.Tokens = tokens

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("JOURNAL_DB_PATH is required")
	}
	if len(c.Tokens) == 0 {
		return fmt.Errorf("JOURNAL_TOKENS must define at least one actor:token pair")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("JOURNAL_LLM_TIMEOUT must be positive")
	}
	if c.RateLimit <= 0 {
		return fmt.Errorf("JOURNAL_RATE_LIMIT must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("JOURNAL_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the configured timezone, or UTC if it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ActorFromToken resolves a bearer token to its actor.
func (c *Config) ActorFromToken(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	actor, ok := c.Tokens[token]
	return actor, ok
}

// Actors returns the configured actor names, sorted.
func (c *Config) Actors() []string {
	seen := make(map[string]bool)
	var actors []string
	for _, actor := range c.Tokens {
		if !seen[actor] {
			seen[actor] = true
			actors = append(actors, actor)
		}
	}
	sort.Strings(actors)
	return actors
}

// parseTokens reads "actor:token,actor:token".
func parseTokens(raw string) (map[string]string, error) {
	tokens := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		actor, token, ok := strings.Cut(pair, ":")
		actor = strings.TrimSpace(actor)
		token = strings.TrimSpace(token)
		if !ok || actor == "" || token == "" {
			return nil, fmt.Errorf("invalid JOURNAL_TOKENS entry %q, want actor:token", pair)
		}
		tokens[token] = actor
	}
	return tokens, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
