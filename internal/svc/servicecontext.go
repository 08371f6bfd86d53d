package svc

import (
	"log"

	"kriptobot/internal/config"
	llmpkg "kriptobot/pkg/llm"
	marketpkg "kriptobot/pkg/market"
	_ "kriptobot/pkg/market/exchanges/binance"
	_ "kriptobot/pkg/market/exchanges/coingecko"
	newspkg "kriptobot/pkg/news"
	promptpkg "kriptobot/pkg/prompt"
)

type ServiceContext struct {
	Config config.Config

	MarketConfig    *marketpkg.Config
	MarketProviders map[string]marketpkg.Provider
	DefaultMarket   marketpkg.Provider

	Analyzer *marketpkg.Analyzer
	News     *newspkg.Aggregator
	Analyst  llmpkg.Analyst
	Prompt   *promptpkg.AnalysisRenderer
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{
		Config: c,
		News:   newspkg.NewAggregator(c.News),
	}

	if c.Market.Value == nil {
		log.Fatal("market config is required")
	}
	marketCfg := c.Market.Value
	providers, err := marketCfg.BuildProviders()
	if err != nil {
		log.Fatalf("failed to build market providers: %v", err)
	}
	svc.MarketConfig = marketCfg
	svc.MarketProviders = providers
	if marketCfg.Default != "" {
		svc.DefaultMarket = providers[marketCfg.Default]
	}

	exchange, index, proxy := classifyProviders(svc.DefaultMarket, providers)
	if exchange == nil {
		log.Fatal("market config must define a provider with a trading-pair catalog")
	}
	if index == nil {
		log.Fatal("market config must define a provider with a coin index")
	}

	analyzerOpts := []marketpkg.AnalyzerOption{
		marketpkg.WithWindowDays(c.Analysis.WindowDays),
		marketpkg.WithReferenceSymbol(c.Analysis.ReferenceSymbol),
	}
	if proxy != nil {
		analyzerOpts = append(analyzerOpts, marketpkg.WithProxySeries(proxy))
	}
	svc.Analyzer = marketpkg.NewAnalyzer(exchange, index, analyzerOpts...)

	if c.LLM.Value != nil {
		analyst, err := llmpkg.NewClient(c.LLM.Value)
		if err != nil {
			log.Fatalf("failed to init llm client: %v", err)
		}
		svc.Analyst = analyst
	}

	renderer, err := promptpkg.NewAnalysisRenderer(c.PromptTemplatePath())
	if err != nil {
		log.Fatalf("failed to load analysis prompt template: %v", err)
	}
	svc.Prompt = renderer

	return svc
}

// classifyProviders splits the configured providers by capability: the
// default provider must carry the trading-pair catalog, any provider may
// supply the coin index, and an index provider that also serves series
// becomes the proxy fallback for unlisted coins.
func classifyProviders(def marketpkg.Provider, providers map[string]marketpkg.Provider) (marketpkg.ExchangeSource, marketpkg.CoinIndex, marketpkg.SeriesSource) {
	var (
		exchange marketpkg.ExchangeSource
		index    marketpkg.CoinIndex
		proxy    marketpkg.SeriesSource
	)

	if ex, ok := def.(marketpkg.ExchangeSource); ok {
		exchange = ex
	}
	for _, p := range providers {
		if exchange == nil {
			if ex, ok := p.(marketpkg.ExchangeSource); ok {
				exchange = ex
			}
		}
		if idx, ok := p.(marketpkg.CoinIndex); ok {
			index = idx
			proxy = p
		}
	}
	return exchange, index, proxy
}
