package config

import (
	"encoding/json"
	"log"
	"os"
)

type Config struct {
	App       AppConfig                 `json:"app"`
	Gateways  map[string]GatewayConfig  `json:"gateways"`
	Providers map[string]ProviderConfig `json:"providers"`
	Memory    MemoryConfig              `json:"memory"`
	Browser   BrowserConfig             `json:"browser"`
}

type AppConfig struct {
	Name       string `json:"name"`
	PromptsDir string `json:"prompts_dir"`
}

type GatewayConfig struct {
	Token   string `json:"token"`
	Enabled bool   `json:"enabled"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	BaseURL string `json:"base_url,omitempty"`
	Enabled bool   `json:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

// BrowserConfig carries the timing knobs for the automation core.
// Zero values are replaced with defaults at load time.
type BrowserConfig struct {
	Headless          bool `json:"headless"`
	LoadTimeoutSecs   int  `json:"load_timeout_seconds"`
	SettleDelayMillis int  `json:"settle_delay_ms"`
	StepDelayMillis   int  `json:"step_delay_ms"`
	RateDelaySecs     int  `json:"rate_delay_seconds"`
	MaxFullContent    int  `json:"max_full_content"`
}

func LoadConfig(path string) *Config {
	file, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: %v", err)
	}
	defer file.Close()

	var cfg Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		log.Fatalf("failed to decode config file: %v", err)
	}

	cfg.Browser.ApplyDefaults()
	return &cfg
}

func (b *BrowserConfig) ApplyDefaults() {
	if b.LoadTimeoutSecs <= 0 {
		b.LoadTimeoutSecs = 10
	}
	if b.SettleDelayMillis <= 0 {
		b.SettleDelayMillis = 2000
	}
	if b.StepDelayMillis <= 0 {
		b.StepDelayMillis = 1000
	}
	if b.RateDelaySecs < 0 {
		b.RateDelaySecs = 0
	}
	if b.MaxFullContent <= 0 {
		b.MaxFullContent = 3
	}
}

// GetDefaultProvider returns the first enabled provider
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	for name, p := range c.Providers {
		if p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	tg, ok := c.Gateways["telegram"]
	if ok && tg.Enabled {
		return tg, true
	}
	return GatewayConfig{}, false
}

// GetDiscordConfig returns discord config if enabled
func (c *Config) GetDiscordConfig() (GatewayConfig, bool) {
	dc, ok := c.Gateways["discord"]
	if ok && dc.Enabled {
		return dc, true
	}
	return GatewayConfig{}, false
}
