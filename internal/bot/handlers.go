package bot

import (
	"context"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"kriptobot/pkg/llm"
	"kriptobot/pkg/market"
	"kriptobot/pkg/prompt"
)

func (b *Bot) handleMessage(ctx context.Context, chatID int64, text string) {
	text = strings.TrimSpace(text)

	switch {
	case text == "/start":
		b.reply(ctx, chatID, startMessage)
	case text == "/help":
		b.reply(ctx, chatID, helpMessage)
	case text == "/top":
		b.handleTop(ctx, chatID)
	case strings.HasPrefix(text, "/search"):
		b.handleSearch(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/search")))
	case strings.HasPrefix(text, "/"):
		b.reply(ctx, chatID, helpMessage)
	default:
		b.handleAnalysis(ctx, chatID, text)
	}
}

func (b *Bot) handleTop(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, fetchingTopText)

	entries, err := b.svcCtx.Analyzer.Index().TopMarkets(ctx, b.svcCtx.Config.Analysis.TopLimit)
	if err != nil || len(entries) == 0 {
		logx.WithContext(ctx).Errorf("bot: top markets failed err=%v", err)
		b.reply(ctx, chatID, topFailedText)
		return
	}
	b.reply(ctx, chatID, topMessage(entries))
}

func (b *Bot) handleSearch(ctx context.Context, chatID int64, query string) {
	if query == "" {
		b.reply(ctx, chatID, searchUsageText)
		return
	}

	results, err := b.svcCtx.Analyzer.Index().Search(ctx, query)
	if err != nil {
		logx.WithContext(ctx).Errorf("bot: search failed query=%q err=%v", query, err)
		b.reply(ctx, chatID, searchFailedText)
		return
	}
	results = filterSearchResults(query, results, searchResultLimit)
	if len(results) == 0 {
		b.reply(ctx, chatID, searchEmptyText)
		return
	}
	b.reply(ctx, chatID, searchMessage(query, results))
}

func (b *Bot) handleAnalysis(ctx context.Context, chatID int64, input string) {
	b.reply(ctx, chatID, searchingMessage)

	analysis, err := b.svcCtx.Analyzer.Analyze(ctx, input)
	if err != nil {
		b.reply(ctx, chatID, analysisErrorMessage(err))
		return
	}
	coin := analysis.Coin
	b.reply(ctx, chatID, analyzingMessage(coin.Name, coin.Symbol))

	if b.svcCtx.Analyst == nil {
		b.reply(ctx, chatID, analystOffText)
		return
	}

	reference := b.svcCtx.Analyzer.Reference(ctx)
	headlines := b.svcCtx.News.Headlines(ctx, coin.Name, coin.Symbol)

	userPrompt, err := b.svcCtx.Prompt.Render(prompt.AnalysisData{
		Symbol:    coin.Symbol,
		Snapshot:  analysis.Snapshot,
		Reference: reference,
		Headlines: headlines,
	})
	if err != nil {
		logx.WithContext(ctx).Errorf("bot: prompt render failed symbol=%s err=%v", coin.Symbol, err)
		b.reply(ctx, chatID, analysisErrorMessage(err))
		return
	}

	verdict, err := b.svcCtx.Analyst.Chat(ctx, prompt.SystemPrompt, userPrompt)
	if err != nil {
		logx.WithContext(ctx).Errorf("bot: analyst call failed symbol=%s err=%v", coin.Symbol, err)
		if llm.IsRateLimited(err) {
			b.reply(ctx, chatID, rateLimitedText)
		} else {
			b.reply(ctx, chatID, llmConnectText)
		}
		return
	}
	b.reply(ctx, chatID, verdict)
}

// searchResultLimit caps /search replies.
const searchResultLimit = 10

// filterSearchResults keeps candidates whose symbol or name contains the
// query, preserving upstream order.
func filterSearchResults(query string, results []market.Suggestion, limit int) []market.Suggestion {
	q := strings.ToLower(query)
	var filtered []market.Suggestion
	for _, s := range results {
		if !strings.Contains(strings.ToLower(s.Symbol), q) && !strings.Contains(strings.ToLower(s.Name), q) {
			continue
		}
		filtered = append(filtered, s)
		if len(filtered) >= limit {
			break
		}
	}
	return filtered
}
