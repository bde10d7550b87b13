// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting the engine consumes. It is loaded once at
// startup and passed by reference into each component; nothing reads it
// through package-level state.
type Config struct {
	// Network
	RPCList      []string `mapstructure:"rpc_list"`
	WebSocketURL string   `mapstructure:"websocket_url"`
	PostgresURL  string   `mapstructure:"postgres_url"`

	// Wallet
	PrivateKey     string `mapstructure:"private_key"`
	RecoveryWallet string `mapstructure:"recovery_wallet"`

	// Trading
	InvestmentAmount float64       `mapstructure:"investment_amount"` // SOL per buy
	Slippage         float64       `mapstructure:"slippage"`          // percent
	JitoTip          uint64        `mapstructure:"jito_tip"`          // lamports
	PriorityFee      float64       `mapstructure:"priority_fee"`      // SOL, compute budget price
	MaxRetries       int           `mapstructure:"max_retries"`
	PollIntervalSec  int           `mapstructure:"poll_interval"`
	PollInterval     time.Duration `mapstructure:"-"`

	// Exit strategy
	TakeProfit     float64       `mapstructure:"take_profit"` // percent
	StopLoss       float64       `mapstructure:"stop_loss"`   // percent
	HoldingTimeSec int           `mapstructure:"holding_time"`
	HoldingTime    time.Duration `mapstructure:"-"`
	SellPercentage float64       `mapstructure:"sell_percentage"` // percent sold on trigger

	// Validation
	CheckMineable        bool    `mapstructure:"check_mineable"`
	CheckFreezable       bool    `mapstructure:"check_freezable"`
	CheckMintAuthority   bool    `mapstructure:"check_mint_authority"`
	CheckFreezeAuthority bool    `mapstructure:"check_freeze_authority"`
	MaxDecimals          uint8   `mapstructure:"max_decimals"`
	MinLiquidity         float64 `mapstructure:"min_liquidity"`

	// Misc
	WatchlistPath string `mapstructure:"watchlist_path"`
	DebugLogging  bool   `mapstructure:"debug_logging"`
	LogFile       string `mapstructure:"log_file"`
}

const (
	DefaultInvestmentAmount = 0.01
	DefaultSlippage         = 2.0
	DefaultJitoTip          = 5000
	DefaultMaxRetries       = 3
	DefaultPollInterval     = 10
	DefaultTakeProfit       = 20.0
	DefaultStopLoss         = 10.0
	DefaultHoldingTime      = 0 // disabled unless configured
	DefaultSellPercentage   = 50.0
	DefaultMaxDecimals      = 9
	DefaultMinLiquidity     = 50.0
	DefaultWatchlistPath    = "tokens.txt"
	DefaultLogFile          = "sniper.log"
)

// LoadConfig reads configuration from the given file, applies SNIPER_*
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	defaults := map[string]interface{}{
		"investment_amount": DefaultInvestmentAmount,
		"slippage":          DefaultSlippage,
		"jito_tip":          DefaultJitoTip,
		"max_retries":       DefaultMaxRetries,
		"poll_interval":     DefaultPollInterval,
		"take_profit":       DefaultTakeProfit,
		"stop_loss":         DefaultStopLoss,
		"holding_time":      DefaultHoldingTime,
		"sell_percentage":   DefaultSellPercentage,
		"max_decimals":      DefaultMaxDecimals,
		"min_liquidity":     DefaultMinLiquidity,
		"watchlist_path":    DefaultWatchlistPath,
		"log_file":          DefaultLogFile,
		"debug_logging":     false,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("SNIPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	applyEnvOverrides(v, &cfg)

	cfg.PollInterval = time.Duration(cfg.PollIntervalSec) * time.Second
	cfg.HoldingTime = time.Duration(cfg.HoldingTimeSec) * time.Second

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.RPCList) == 0 {
		return errors.New("rpc_list must contain at least one RPC endpoint")
	}
	for _, rpcURL := range c.RPCList {
		if err := validateURL(rpcURL, "http"); err != nil {
			return fmt.Errorf("invalid RPC URL %q: %w", rpcURL, err)
		}
	}
	if c.WebSocketURL == "" {
		return errors.New("websocket_url is required")
	}
	if err := validateURL(c.WebSocketURL, "ws"); err != nil {
		return fmt.Errorf("invalid WebSocket URL: %w", err)
	}
	if c.PrivateKey == "" {
		return errors.New("private_key is required")
	}
	return c.validateNumericParams()
}

func (c *Config) validateNumericParams() error {
	if c.InvestmentAmount <= 0 {
		return errors.New("invalid investment_amount")
	}
	if c.MaxRetries < 0 {
		return errors.New("invalid max_retries")
	}
	if c.PollIntervalSec <= 0 {
		return errors.New("invalid poll_interval")
	}
	if c.TakeProfit <= 0 || c.StopLoss <= 0 {
		return errors.New("take_profit and stop_loss must be positive")
	}
	if c.SellPercentage <= 0 || c.SellPercentage > 100 {
		return errors.New("sell_percentage must be within (0, 100]")
	}
	return nil
}

func validateURL(rawURL, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	return nil
}

// applyEnvOverrides covers the secrets that are usually supplied through the
// environment rather than the config file.
func applyEnvOverrides(v *viper.Viper, cfg *Config) {
	if key := v.GetString("PRIVATE_KEY"); key != "" {
		cfg.PrivateKey = key
	}
	if addr := v.GetString("RECOVERY_WALLET"); addr != "" {
		cfg.RecoveryWallet = addr
	}
	if dsn := v.GetString("POSTGRES_URL"); dsn != "" {
		cfg.PostgresURL = dsn
	}
	if rpcList := v.GetString("RPC_LIST"); rpcList != "" {
		var clean []string
		for _, rpc := range strings.Split(rpcList, ",") {
			if trimmed := strings.TrimSpace(rpc); trimmed != "" {
				clean = append(clean, trimmed)
			}
		}
		if len(clean) > 0 {
			cfg.RPCList = clean
		}
	}
}

// MaskForLogging hides API keys embedded in RPC URLs.
func MaskForLogging(rawURL string) string {
	idx := strings.Index(rawURL, "api-key=")
	if idx < 0 {
		return rawURL
	}
	return rawURL[:idx] + "api-key=***"
}
