package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/krakendca/config"
	"github.com/vadiminshakov/krakendca/pkg/krakenauth"
)

const configFileMode = 0o600

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

// Answers collected by the wizard.
type Answers struct {
	APIKey         string
	APISecret      string
	Fiat           string
	Strategies     string
	DryRun         bool
	DiscordWebhook string
	TelegramToken  string
	TelegramChatID string
	LogLevel       string
}

func header(step string) {
	fmt.Print("\033[H\033[2J") // clear screen
	fmt.Println(headerStyle.Render("KRAKEN DCA CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(step))
}

// RunTUI launches the terminal configuration wizard and writes the result to path.
func RunTUI(path string) error {
	a := Answers{
		Fiat:       config.DefaultFiat,
		Strategies: "XBTEUR:50, ETHEUR:25",
		DryRun:     true,
		LogLevel:   config.DefaultLogLevel,
	}
	var confirm bool

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("KRAKEN DCA CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Set up your recurring Kraken purchases.\n"))

	// credentials
	fmt.Println(stepStyle.Render("STEP 1: API CREDENTIALS"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Key").
				Description("Leave empty to use KRAKEN_API_KEY from the environment").
				Value(&a.APIKey),
			huh.NewInput().
				Title("API Secret").
				Description("Base64 private key, leave empty to use KRAKEN_API_SECRET").
				EchoMode(huh.EchoModePassword).
				Value(&a.APISecret).
				Validate(validateSecret),
		),
	).Run()
	if err != nil {
		return err
	}

	// fiat
	header("STEP 2: FIAT CURRENCY")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which currency do you spend?").
				Options(
					huh.NewOption("Euro (EUR)", "EUR"),
					huh.NewOption("US Dollar (USD)", "USD"),
					huh.NewOption("British Pound (GBP)", "GBP"),
					huh.NewOption("Canadian Dollar (CAD)", "CAD"),
				).
				Value(&a.Fiat),
		),
	).Run()
	if err != nil {
		return err
	}

	// strategies
	header("STEP 3: STRATEGIES")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Pairs and amounts").
				Description("PAIR:AMOUNT separated by commas (e.g. XBTEUR:50, ETHEUR:25)").
				Value(&a.Strategies).
				Validate(func(s string) error {
					_, err := ParseStrategyList(s)
					return err
				}),
			huh.NewConfirm().
				Title("Dry run?").
				Description("Simulate purchases without placing orders").
				Value(&a.DryRun),
		),
	).Run()
	if err != nil {
		return err
	}

	// notifications
	header("STEP 4: NOTIFICATIONS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Discord Webhook URL").
				Description("Optional").
				Value(&a.DiscordWebhook),
			huh.NewInput().
				Title("Telegram Bot Token").
				Description("Optional").
				EchoMode(huh.EchoModePassword).
				Value(&a.TelegramToken),
			huh.NewInput().
				Title("Telegram Chat ID").
				Description("Required with a bot token").
				Value(&a.TelegramChatID).
				Validate(validateChatID),
			huh.NewSelect[string]().
				Title("Log level").
				Options(
					huh.NewOption("Info", "INFO"),
					huh.NewOption("Debug", "DEBUG"),
					huh.NewOption("Warning", "WARNING"),
					huh.NewOption("Error", "ERROR"),
				).
				Value(&a.LogLevel),
		),
	).Run()
	if err != nil {
		return err
	}

	tmp, err := Build(a)
	if err != nil {
		return err
	}

	// confirmation
	header("FINAL CONFIRMATION")
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(Summary(tmp)))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := Write(path, tmp); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	return nil
}

// ParseStrategyList parses "XBTEUR:50, ETHEUR:25".
func ParseStrategyList(s string) ([]config.StrategyTmp, error) {
	var out []config.StrategyTmp
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		pair, amountStr, ok := strings.Cut(item, ":")
		if !ok {
			return nil, fmt.Errorf("invalid entry %q: expected PAIR:AMOUNT", item)
		}
		pair = strings.ToUpper(strings.TrimSpace(pair))
		if pair == "" {
			return nil, fmt.Errorf("invalid entry %q: pair cannot be empty", item)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(amountStr))
		if err != nil {
			return nil, fmt.Errorf("invalid amount in %q: must be a valid number", item)
		}
		if !amount.IsPositive() {
			return nil, fmt.Errorf("invalid amount in %q: must be positive", item)
		}
		out = append(out, config.StrategyTmp{Pair: pair, Amount: config.NewAmount(amount)})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one strategy is required")
	}
	return out, nil
}

// Build turns wizard answers into the YAML structure.
func Build(a Answers) (config.ConfigTmp, error) {
	strategies, err := ParseStrategyList(a.Strategies)
	if err != nil {
		return config.ConfigTmp{}, err
	}
	if err := validateSecret(a.APISecret); err != nil {
		return config.ConfigTmp{}, err
	}
	if err := validateChatID(a.TelegramChatID); err != nil {
		return config.ConfigTmp{}, err
	}

	tmp := config.ConfigTmp{
		API: config.APITmp{Key: strings.TrimSpace(a.APIKey), Secret: strings.TrimSpace(a.APISecret)},
		DCA: config.DCATmp{
			DryRun:     a.DryRun,
			Fiat:       strings.ToUpper(a.Fiat),
			Strategies: strategies,
		},
		Logging: config.LoggingTmp{
			Level:          a.LogLevel,
			File:           config.DefaultLogFile,
			DiscordWebhook: strings.TrimSpace(a.DiscordWebhook),
		},
	}

	if token := strings.TrimSpace(a.TelegramToken); token != "" {
		chatID, _ := strconv.ParseInt(strings.TrimSpace(a.TelegramChatID), 10, 64)
		if chatID == 0 {
			return config.ConfigTmp{}, fmt.Errorf("telegram chat id is required with a bot token")
		}
		tmp.Telegram = config.TelegramTmp{Token: token, ChatID: chatID}
	}

	return tmp, nil
}

// Summary renders the settings shown before saving. Secrets are masked.
func Summary(tmp config.ConfigTmp) string {
	var b strings.Builder
	fmt.Fprintf(&b, "API key: %s\n", mask(tmp.API.Key))
	fmt.Fprintf(&b, "Fiat: %s\n", tmp.DCA.Fiat)
	fmt.Fprintf(&b, "Dry run: %t\n", tmp.DCA.DryRun)
	for _, s := range tmp.DCA.Strategies {
		fmt.Fprintf(&b, "  %s: %s %s\n", s.Pair, s.Amount.StringFixed(2), tmp.DCA.Fiat)
	}
	fmt.Fprintf(&b, "Discord: %t\n", tmp.Logging.DiscordWebhook != "")
	fmt.Fprintf(&b, "Telegram: %t", tmp.Telegram.Token != "")
	return b.String()
}

// Write saves tmp as YAML at path, readable by the owner only.
func Write(path string, tmp config.ConfigTmp) error {
	data, err := config.Marshal(tmp)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return errors.Wrap(err, "failed to save config file")
	}
	return nil
}

func validateSecret(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := krakenauth.DecodeSecret(s); err != nil {
		return fmt.Errorf("secret must be base64 as shown by Kraken")
	}
	return nil
}

func validateChatID(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return fmt.Errorf("chat id must be a number")
	}
	return nil
}

func mask(s string) string {
	switch {
	case s == "":
		return "(from environment)"
	case len(s) <= 4:
		return "****"
	default:
		return s[:4] + "****"
	}
}
