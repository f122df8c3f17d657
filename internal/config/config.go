package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"docketbot/internal/domain"
)

type Config struct {
	DBPath       string `yaml:"db_path"`
	HistoryLimit int    `yaml:"history_limit"`

	// ConfidenceThreshold feeds the pattern suggester; records below it are
	// not mined. ReviewConfidenceThreshold flags decisions for human review.
	ConfidenceThreshold       float64 `yaml:"confidence_threshold"`
	ReviewConfidenceThreshold float64 `yaml:"review_confidence_threshold"`

	// ValidYearSuffixes overrides the docket year window. Empty keeps the
	// default of current and next calendar year; reissued dockets from
	// earlier years can be admitted here.
	ValidYearSuffixes []string `yaml:"valid_year_suffixes"`

	// AnalyzeSchedule is a standard 5-field cron expression; empty disables
	// the background analysis runs.
	AnalyzeSchedule string `yaml:"analyze_schedule"`

	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	Qualifier domain.QualifierConfig `yaml:"qualifier"`
}

var yearSuffixRe = regexp.MustCompile(`^\d{2}$`)

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	// Env vars override YAML values
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverrideInt(&cfg.HistoryLimit, "HISTORY_LIMIT")
	envOverrideFloat(&cfg.ConfidenceThreshold, "CONFIDENCE_THRESHOLD")
	envOverrideFloat(&cfg.ReviewConfidenceThreshold, "REVIEW_CONFIDENCE_THRESHOLD")
	envOverride(&cfg.AnalyzeSchedule, "ANALYZE_SCHEDULE")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")

	if years := os.Getenv("VALID_YEAR_SUFFIXES"); years != "" {
		cfg.ValidYearSuffixes = nil
		for _, y := range strings.Split(years, ",") {
			if y = strings.TrimSpace(y); y != "" {
				cfg.ValidYearSuffixes = append(cfg.ValidYearSuffixes, y)
			}
		}
	}

	// Defaults
	if cfg.DBPath == "" {
		cfg.DBPath = "./docketbot.db"
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = 10000
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = 0.80
	}
	if cfg.ReviewConfidenceThreshold == 0 {
		cfg.ReviewConfidenceThreshold = 0.60
	}

	// Validate
	if cfg.HistoryLimit < 1 {
		log.Fatalf("invalid history_limit '%d': must be >= 1", cfg.HistoryLimit)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		log.Fatalf("invalid confidence_threshold '%f': must be between 0 and 1", cfg.ConfidenceThreshold)
	}
	if cfg.ReviewConfidenceThreshold < 0 || cfg.ReviewConfidenceThreshold > 1 {
		log.Fatalf("invalid review_confidence_threshold '%f': must be between 0 and 1", cfg.ReviewConfidenceThreshold)
	}
	for _, y := range cfg.ValidYearSuffixes {
		if !yearSuffixRe.MatchString(y) {
			log.Fatalf("invalid valid_year_suffixes entry '%s': must be two digits", y)
		}
	}
	cfg.Qualifier = sanitizeQualifier(cfg.Qualifier)

	return cfg
}

// sanitizeQualifier drops malformed rule entries with a log line instead of
// failing; a bad rule must never abort classification of live mail.
func sanitizeQualifier(q domain.QualifierConfig) domain.QualifierConfig {
	clean := func(name string, rules []string) []string {
		var out []string
		for _, r := range rules {
			trimmed := strings.TrimSpace(r)
			if trimmed == "" {
				log.Printf("qualifier config: skipping empty %s entry", name)
				continue
			}
			out = append(out, trimmed)
		}
		return out
	}
	q.SubjectPatterns = clean("subject_patterns", q.SubjectPatterns)
	q.SubjectExclusions = clean("subject_exclusions", q.SubjectExclusions)
	q.AttachmentExtensions = clean("attachment_extensions", q.AttachmentExtensions)
	q.HostingDomains = clean("hosting_domains", q.HostingDomains)
	q.SenderWhitelist = clean("sender_whitelist", q.SenderWhitelist)
	q.BodyExclusions = clean("body_exclusions", q.BodyExclusions)
	return q
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

func envOverrideFloat(field *float64, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}

// SlackConfigured reports whether the notifier has what it needs.
func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}

func (c Config) String() string {
	return fmt.Sprintf("db=%s history_limit=%d confidence=%.2f review=%.2f schedule=%q slack=%t",
		c.DBPath, c.HistoryLimit, c.ConfidenceThreshold, c.ReviewConfidenceThreshold,
		c.AnalyzeSchedule, c.SlackConfigured())
}
