package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/service"

	"kriptobot/pkg/confkit"
	llmpkg "kriptobot/pkg/llm"
	marketpkg "kriptobot/pkg/market"
	newspkg "kriptobot/pkg/news"
)

// TelegramConf wires the bot transport. Token normally arrives through
// ${TELEGRAM_TOKEN} in the yaml file.
type TelegramConf struct {
	Token       string `json:",optional"`
	APIBaseURL  string `json:",default=https://api.telegram.org"`
	ProxyURL    string `json:",optional"`
	PollTimeout int    `json:",default=30"` // long-poll window, seconds
}

// AnalysisConf tunes the market analysis pipeline.
type AnalysisConf struct {
	WindowDays      int    `json:",default=30"`
	ReferenceSymbol string `json:",default=BTC"`
	PromptTemplate  string `json:",default=prompts/analysis.tmpl"`
	TopLimit        int    `json:",default=20"`
}

type Config struct {
	service.ServiceConf
	// Env indicates the running environment: test | dev | prod.
	// Test mode tolerates a missing Telegram token.
	Env      string         `json:",default=test"`
	Telegram TelegramConf   `json:",optional"`
	News     newspkg.Config `json:",optional"`
	Analysis AnalysisConf   `json:",optional"`

	LLM    confkit.Section[llmpkg.Config]    `json:",optional"`
	Market confkit.Section[marketpkg.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "test"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if !c.IsTestEnv() && strings.TrimSpace(c.Telegram.Token) == "" {
		return errors.New("config: telegram token is required outside test env")
	}
	if c.Telegram.PollTimeout <= 0 {
		return errors.New("config: telegram poll timeout must be positive")
	}
	if c.Analysis.WindowDays <= 0 {
		return errors.New("config: analysis window days must be positive")
	}
	if strings.TrimSpace(c.Analysis.ReferenceSymbol) == "" {
		return errors.New("config: analysis reference symbol is required")
	}
	if c.Analysis.TopLimit <= 0 {
		return errors.New("config: analysis top limit must be positive")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	base := c.baseDir

	if err := c.LLM.Hydrate(base, llmpkg.LoadConfig); err != nil {
		return fmt.Errorf("load llm config: %w", err)
	}
	if err := c.Market.Hydrate(base, marketpkg.LoadConfig); err != nil {
		return fmt.Errorf("load market config: %w", err)
	}
	return nil
}

// PromptTemplatePath resolves the analysis template against the config dir.
func (c *Config) PromptTemplatePath() string {
	return confkit.ResolvePath(c.baseDir, c.Analysis.PromptTemplate)
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
