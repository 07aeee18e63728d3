package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"jurimetria/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	DataJud  DataJudConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
	Server   ServerConfig
	Export   ExportConfig
}

// DataJudConfig holds the public API connection settings
type DataJudConfig struct {
	BaseURL           string
	APIKey            string
	Tribunal          string
	PageSize          int
	MaxPages          int
	RequestsPerMinute int
	Timeout           time.Duration
	MaxRetries        int
}

// DatabaseConfig holds database connection settings. The URL is optional:
// without one, runs are analyzed in memory and not persisted.
type DatabaseConfig struct {
	URL string
}

// AnalysisConfig holds the statistical and query settings for one run
type AnalysisConfig struct {
	Alpha        float64
	SubjectCodes []int
	ClassCode    int
	MaxRecords   int
	// RulesFile optionally overrides the built-in classification rule set
	// with a JSON file
	RulesFile string
}

// ServerConfig holds API server settings
type ServerConfig struct {
	Port string
}

// ExportConfig holds report export settings
type ExportConfig struct {
	OutputPath string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		DataJud:  loadDataJudConfig(),
		Database: DatabaseConfig{URL: getEnvOrDefault("DATABASE_URL", "")},
		Analysis: loadAnalysisConfig(),
		Server:   ServerConfig{Port: getEnvOrDefault("PORT", "8080")},
		Export:   ExportConfig{OutputPath: getEnvOrDefault("OUTPUT_FILE", "jurimetria.xlsx")},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDataJudConfig() DataJudConfig {
	return DataJudConfig{
		BaseURL:           getEnvOrDefault("DATAJUD_BASE_URL", "https://api-publica.datajud.cnj.jus.br"),
		APIKey:            getEnvOrDefault("DATAJUD_API_KEY", ""),
		Tribunal:          getEnvOrDefault("DATAJUD_TRIBUNAL", "TJMT"),
		PageSize:          getEnvIntOrDefault("DATAJUD_PAGE_SIZE", 500),
		MaxPages:          getEnvIntOrDefault("DATAJUD_MAX_PAGES", 20),
		RequestsPerMinute: getEnvIntOrDefault("DATAJUD_RPM", 30),
		Timeout:           getEnvDurationOrDefault("DATAJUD_TIMEOUT", 60*time.Second),
		MaxRetries:        getEnvIntOrDefault("DATAJUD_MAX_RETRIES", 3),
	}
}

func loadAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Alpha:        getEnvFloatOrDefault("ALPHA", 0.05),
		SubjectCodes: getEnvIntListOrDefault("SUBJECT_CODES", defaultSubjectCodes()),
		ClassCode:    getEnvIntOrDefault("CLASS_CODE", 0),
		MaxRecords:   getEnvIntOrDefault("MAX_RECORDS", 10000),
		RulesFile:    getEnvOrDefault("RULES_FILE", ""),
	}
}

// defaultSubjectCodes is the public-health litigation subject set (TPU codes
// for medication supply, hospital treatment and related health claims)
func defaultSubjectCodes() []int {
	return []int{10069, 12491, 11883, 12489, 10283, 12223, 12511, 10282, 8934, 10064}
}

func validateConfig(config *Config) error {
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("ALPHA must be strictly between 0 and 1")
	}
	if len(config.Analysis.SubjectCodes) == 0 {
		return errors.ConfigInvalid("SUBJECT_CODES must list at least one code")
	}
	return nil
}

// LoadRulesJSON reads a rule-set override file. The file carries the same
// JSON shape the default rule set marshals to.
func LoadRulesJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read rules file %s", path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to parse rules file %s", path)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvIntListOrDefault parses a comma-separated list of integers
func getEnvIntListOrDefault(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return defaultValue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
