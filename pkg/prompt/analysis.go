package prompt

import (
	"fmt"
	"html"
	"strings"

	"kriptobot/pkg/market"
	"kriptobot/pkg/news"
)

// SystemPrompt frames the model as a professional crypto analyst.
const SystemPrompt = "Kamu adalah analis teknikal dan fundamental kripto profesional."

// noNewsText stands in when no matching headline was found.
const noNewsText = "Tidak ada berita terkini ditemukan."

// AnalysisData feeds one analyst prompt: the coin snapshot, the BTC
// reference, and any matched headlines.
type AnalysisData struct {
	Symbol    string
	Snapshot  *market.Snapshot
	Reference *market.Snapshot
	Headlines []news.Headline
}

// AnalysisRenderer builds the analyst prompt from the on-disk template.
// User-controlled fields (symbol, headline text) are HTML-escaped before
// they reach the template, so pasted markup cannot rewrite the prompt.
type AnalysisRenderer struct {
	tmpl *Template
}

// NewAnalysisRenderer loads the analysis template from path.
func NewAnalysisRenderer(path string) (*AnalysisRenderer, error) {
	tmpl, err := NewTemplate(path, nil)
	if err != nil {
		return nil, err
	}
	return &AnalysisRenderer{tmpl: tmpl}, nil
}

// Render produces the user prompt for one analysis.
func (r *AnalysisRenderer) Render(data AnalysisData) (string, error) {
	if data.Snapshot == nil {
		return "", fmt.Errorf("prompt: analysis snapshot is nil")
	}
	ref := data.Reference
	if ref == nil {
		ref = &market.Snapshot{}
	}

	return r.tmpl.Render(map[string]any{
		"Symbol":          html.EscapeString(data.Symbol),
		"Price":           data.Snapshot.Price,
		"RSI":             data.Snapshot.RSI,
		"EMA20":           data.Snapshot.EMAShort,
		"EMA50":           data.Snapshot.EMALong,
		"MACD":            data.Snapshot.MACD,
		"VolumeChange1h":  data.Snapshot.VolumeChange1h,
		"VolumeChange24h": data.Snapshot.VolumeChange24h,
		"BTCPrice":        ref.Price,
		"BTCRSI":          ref.RSI,
		"News":            formatHeadlines(data.Headlines),
	})
}

// Reload reparses the template from disk.
func (r *AnalysisRenderer) Reload() error {
	return r.tmpl.Reload()
}

func formatHeadlines(items []news.Headline) string {
	if len(items) == 0 {
		return noNewsText
	}
	lines := make([]string, 0, len(items))
	for _, item := range items {
		title := html.EscapeString(item.Title)
		lines = append(lines, fmt.Sprintf("- [%s](%s) (%s)", title, item.URL, item.Source))
	}
	return strings.Join(lines, "\n")
}
