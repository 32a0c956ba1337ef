package config

import (
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/krakendca/internal/domain"
	"github.com/vadiminshakov/krakendca/pkg/krakenauth"
)

const (
	DefaultPath     = "config.yaml"
	DefaultFiat     = "EUR"
	DefaultLogLevel = "INFO"
	DefaultLogFile  = "kraken_dca.log"

	EnvAPIKey         = "KRAKEN_API_KEY"
	EnvAPISecret      = "KRAKEN_API_SECRET"
	EnvAPIBase        = "KRAKEN_API_BASE"
	EnvDiscordWebhook = "DISCORD_WEBHOOK_URL"
)

// Config is the validated run configuration.
type Config struct {
	API      APIConfig
	DCA      DCAConfig
	Logging  LoggingConfig
	Telegram TelegramConfig
	History  HistoryConfig
}

type APIConfig struct {
	Key     string
	Secret  string
	BaseURL string
}

type DCAConfig struct {
	DryRun     bool
	Fiat       string
	Strategies []domain.Strategy
}

type LoggingConfig struct {
	Level          string
	File           string
	DiscordWebhook string
}

type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Enabled reports whether Telegram notifications are configured.
func (t TelegramConfig) Enabled() bool {
	return t.Token != ""
}

type HistoryConfig struct {
	Dir string
}

// Enabled reports whether run history is written.
func (h HistoryConfig) Enabled() bool {
	return h.Dir != ""
}

// Credentials returns the API credentials.
func (c Config) Credentials() domain.Credentials {
	return domain.Credentials{APIKey: c.API.Key, APISecret: c.API.Secret}
}

// ConfigTmp mirrors the YAML file.
type ConfigTmp struct {
	API      APITmp      `yaml:"api"`
	DCA      DCATmp      `yaml:"dca"`
	Logging  LoggingTmp  `yaml:"logging"`
	Telegram TelegramTmp `yaml:"telegram,omitempty"`
	History  HistoryTmp  `yaml:"history,omitempty"`
}

type APITmp struct {
	Key     string `yaml:"key"`
	Secret  string `yaml:"secret"`
	BaseURL string `yaml:"base_url,omitempty"`
}

type DCATmp struct {
	DryRun     bool          `yaml:"dry_run"`
	Fiat       string        `yaml:"fiat,omitempty"`
	Strategies []StrategyTmp `yaml:"strategies"`
}

// StrategyTmp accepts the amount as amount_eur (older files) or amount.
type StrategyTmp struct {
	Pair      string  `yaml:"pair"`
	Amount    *Amount `yaml:"amount,omitempty"`
	AmountEUR *Amount `yaml:"amount_eur,omitempty"`
}

type LoggingTmp struct {
	Level          string `yaml:"level,omitempty"`
	File           string `yaml:"file,omitempty"`
	DiscordWebhook string `yaml:"discord_webhook,omitempty"`
}

type TelegramTmp struct {
	Token  string `yaml:"token,omitempty"`
	ChatID int64  `yaml:"chat_id,omitempty"`
}

type HistoryTmp struct {
	Dir string `yaml:"dir,omitempty"`
}

// Amount is a decimal read from a YAML scalar without a float round trip.
type Amount struct {
	decimal.Decimal
}

// NewAmount wraps d.
func NewAmount(d decimal.Decimal) *Amount {
	return &Amount{Decimal: d}
}

func (a *Amount) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a number", n.Line)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(n.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid amount %q", n.Line, n.Value)
	}
	a.Decimal = d
	return nil
}

func (a Amount) MarshalYAML() (interface{}, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: a.Decimal.String()}, nil
}

// LoadEnv loads .env files into the process environment. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(err, "failed to load %s", f)
		}
	}
	return nil
}

// Load reads and validates the YAML file at path, filling blanks from the environment.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("configuration file %s not found, create it from config.example.yaml or run with -setup", path)
		}
		return Config{}, errors.Wrapf(err, "failed to read %s", path)
	}
	return Parse(data, os.Getenv)
}

// Parse decodes YAML and applies environment values from getenv to empty fields.
func Parse(data []byte, getenv func(string) string) (Config, error) {
	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return Config{}, errors.Wrap(err, "failed to parse yaml config")
	}

	applyEnv(&tmp, getenv)

	return tmp.build()
}

func applyEnv(tmp *ConfigTmp, getenv func(string) string) {
	if getenv == nil {
		return
	}
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = strings.TrimSpace(getenv(env))
		}
	}
	fill(&tmp.API.Key, EnvAPIKey)
	fill(&tmp.API.Secret, EnvAPISecret)
	fill(&tmp.API.BaseURL, EnvAPIBase)
	fill(&tmp.Logging.DiscordWebhook, EnvDiscordWebhook)
}

func (tmp ConfigTmp) build() (Config, error) {
	c := Config{
		API: APIConfig{
			Key:     strings.TrimSpace(tmp.API.Key),
			Secret:  strings.TrimSpace(tmp.API.Secret),
			BaseURL: strings.TrimSpace(tmp.API.BaseURL),
		},
		DCA: DCAConfig{
			DryRun: tmp.DCA.DryRun,
			Fiat:   strings.ToUpper(strings.TrimSpace(tmp.DCA.Fiat)),
		},
		Logging: LoggingConfig{
			Level:          tmp.Logging.Level,
			File:           tmp.Logging.File,
			DiscordWebhook: strings.TrimSpace(tmp.Logging.DiscordWebhook),
		},
		Telegram: TelegramConfig{Token: tmp.Telegram.Token, ChatID: tmp.Telegram.ChatID},
		History:  HistoryConfig{Dir: tmp.History.Dir},
	}
	if c.DCA.Fiat == "" {
		c.DCA.Fiat = DefaultFiat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.File == "" {
		c.Logging.File = DefaultLogFile
	}

	if c.API.Key == "" {
		return Config{}, fmt.Errorf("api.key is required (or set %s)", EnvAPIKey)
	}
	if c.API.Secret == "" {
		return Config{}, fmt.Errorf("api.secret is required (or set %s)", EnvAPISecret)
	}
	if _, err := krakenauth.DecodeSecret(c.API.Secret); err != nil {
		return Config{}, fmt.Errorf("api.secret is invalid: %w", err)
	}
	if c.Telegram.Enabled() && c.Telegram.ChatID == 0 {
		return Config{}, fmt.Errorf("telegram.chat_id is required when telegram.token is set")
	}

	if len(tmp.DCA.Strategies) == 0 {
		return Config{}, fmt.Errorf("dca.strategies must contain at least one strategy")
	}
	for i, st := range tmp.DCA.Strategies {
		amount := st.Amount
		if amount == nil {
			amount = st.AmountEUR
		}
		if amount == nil {
			return Config{}, fmt.Errorf("dca.strategies[%d]: amount is required", i)
		}
		s, err := domain.NewStrategy(strings.TrimSpace(st.Pair), amount.Decimal)
		if err != nil {
			return Config{}, fmt.Errorf("dca.strategies[%d]: %w", i, err)
		}
		c.DCA.Strategies = append(c.DCA.Strategies, s)
	}

	return c, nil
}

// Marshal renders tmp as YAML.
func Marshal(tmp ConfigTmp) ([]byte, error) {
	data, err := yaml.Marshal(tmp)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate yaml")
	}
	return data, nil
}
