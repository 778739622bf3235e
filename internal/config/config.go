// Load envs from .env
// Load YAML config
// Override with env vars
// Provide default values and validate

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"go-goodhr-automation/internal/store"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

const (
	ActuatorHTTP = "http"
	ActuatorPage = "page"
	ActuatorNone = "none"
)

type Config struct {
	//User
	Phone    string `yaml:"phone" env:"GOODHR_PHONE"`
	Position string `yaml:"position" env:"GOODHR_POSITION"`
	//Paths
	DataDir       string `yaml:"data_dir" env:"GOODHR_DATA_DIR"`
	CachePath     string `yaml:"cache_path"`
	CookiesPath   string `yaml:"cookies_path"`
	ScreenshotDir string `yaml:"screenshot_dir"`
	FeedPath      string `yaml:"feed_path" env:"GOODHR_FEED"`
	//Clicking
	ActuatorMode  string        `yaml:"actuator_mode" env:"ACTUATOR_MODE"`
	ActuatorURL   string        `yaml:"actuator_url" env:"ACTUATOR_URL"`
	ClickInterval time.Duration `yaml:"click_interval"`
	StartURL      string        `yaml:"start_url"`
	Headless      bool          `yaml:"headless"`
	//AI screening of enterprise users
	AIScreening bool   `yaml:"ai_screening" env:"AI_SCREENING"`
	AIAPIKey    string `yaml:"ai_api_key" env:"AI_API_KEY"`
	AIURL       string `yaml:"ai_api_url" env:"AI_API_URL"`
	AIModel     string `yaml:"ai_model" env:"AI_MODEL"`
	//Reporting
	TelegramToken  string `yaml:"telegram_token" env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID int64  `yaml:"telegram_chat_id" env:"TELEGRAM_CHAT_ID"`
	//Infra
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	PanelAddr   string `yaml:"panel_addr" env:"PANEL_ADDR"`
	RandomSeed  int64  `yaml:"random_seed" env:"RANDOM_SEED"`
	Schedule    string `yaml:"schedule" env:"SCHEDULE"`
}

// Load reads .env, then the YAML file at path (missing is fine), then env
// overrides, then applies defaults and validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Warning: Could not read %s: %v", path, err)
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"GOODHR_PHONE":       &c.Phone,
		"GOODHR_POSITION":    &c.Position,
		"GOODHR_DATA_DIR":    &c.DataDir,
		"GOODHR_FEED":        &c.FeedPath,
		"ACTUATOR_MODE":      &c.ActuatorMode,
		"ACTUATOR_URL":       &c.ActuatorURL,
		"TELEGRAM_BOT_TOKEN": &c.TelegramToken,
		"DATABASE_URL":       &c.DatabaseURL,
		"PANEL_ADDR":         &c.PanelAddr,
		"SCHEDULE":           &c.Schedule,
		"AI_API_KEY":         &c.AIAPIKey,
		"AI_API_URL":         &c.AIURL,
		"AI_MODEL":           &c.AIModel,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		c.TelegramChatID = id
	}

	if v := os.Getenv("AI_SCREENING"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid AI_SCREENING: %w", err)
		}
		c.AIScreening = on
	}

	if seed := os.Getenv("RANDOM_SEED"); seed != "" {
		n, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid RANDOM_SEED: %w", err)
		}
		c.RandomSeed = n
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.CachePath == "" {
		c.CachePath = "./.cache"
	}
	if c.CookiesPath == "" {
		c.CookiesPath = "./.cookies"
	}
	if c.ActuatorMode == "" {
		c.ActuatorMode = ActuatorHTTP
	}
	if c.ActuatorURL == "" {
		c.ActuatorURL = "http://127.0.0.1:5000"
	}
	if c.ClickInterval <= 0 {
		c.ClickInterval = 500 * time.Millisecond
	}
	if c.FeedPath == "" {
		c.FeedPath = "-"
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Phone == "" {
		errs = append(errs, errors.New("GOODHR_PHONE is required"))
	} else if err := store.ValidatePhone(c.Phone); err != nil {
		errs = append(errs, err)
	}

	switch c.ActuatorMode {
	case ActuatorHTTP, ActuatorPage, ActuatorNone:
	default:
		errs = append(errs, fmt.Errorf("unknown ACTUATOR_MODE %q", c.ActuatorMode))
	}

	if c.AIScreening && c.AIAPIKey == "" {
		errs = append(errs, errors.New("AI_SCREENING needs AI_API_KEY"))
	}

	//stdin is drained by the first run
	if c.Schedule != "" && c.FeedPath == "-" {
		errs = append(errs, errors.New("SCHEDULE needs a feed_path file, stdin can only be read once"))
	}

	if (c.TelegramToken == "") != (c.TelegramChatID == 0) {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together"))
	}
	return errors.Join(errs...)
}

// TelegramEnabled reports whether match notifications go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}
