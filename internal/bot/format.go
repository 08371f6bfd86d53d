package bot

import (
	"errors"
	"fmt"
	"strings"

	"kriptobot/pkg/fetch"
	"kriptobot/pkg/llm"
	"kriptobot/pkg/market"
)

const startMessage = "📊 Selamat datang di Bot Prediksi Kripto AI!\n\n" +
	"🌍 *Mendukung semua cryptocurrency di Binance*\n\n" +
	"*Cara penggunaan:*\n" +
	"• Ketik simbol kripto langsung (contoh: BTC, ETH, SOL)\n" +
	"• Gunakan /top untuk melihat top cryptocurrency\n" +
	"• Gunakan /search <query> untuk mencari kripto\n" +
	"• Gunakan /help untuk panduan lengkap"

const helpMessage = "📚 *Panduan Bot Prediksi Kripto*\n\n" +
	"*Analisis:*\n" +
	"Ketik simbol atau nama koin, contoh:\n" +
	"BTC\n" +
	"ethereum\n\n" +
	"*Perintah:*\n" +
	"/top - Top cryptocurrency berdasarkan market cap\n" +
	"/search <query> - Cari cryptocurrency\n\n" +
	"Contoh:\n" +
	"/search bitcoin\n" +
	"/search doge"

const (
	searchingMessage = "🔍 Mencari cryptocurrency..."
	fetchingTopText  = "📊 Mengambil data top cryptocurrency..."
	topFailedText    = "❌ Gagal mengambil data cryptocurrency."
	searchUsageText  = "Gunakan: /search <query>\n\nContoh:\n/search bitcoin\n/search doge"
	searchFailedText = "❌ Terjadi kesalahan saat mencari cryptocurrency."
	searchEmptyText  = "❌ Tidak ditemukan cryptocurrency yang cocok.\n💡 Coba kata kunci lain"
	unknownMessage   = "❌ Tidak ditemukan cryptocurrency yang cocok.\n💡 Gunakan /search untuk mencari koin"
	rateLimitedText  = "⚠️ Limit OpenAI tercapai. Silakan coba lagi nanti."
	llmConnectText   = "🔌 Gagal terhubung ke OpenAI. Cek koneksi internet Anda."
	analystOffText   = "⚠️ Analisis AI tidak tersedia saat ini."
	upstreamBusyText = "⚠️ Sumber data sedang sibuk. Silakan coba lagi nanti."
	upstreamDownText = "🔌 Gagal mengambil data pasar. Coba lagi nanti."
)

func analyzingMessage(name, symbol string) string {
	return fmt.Sprintf("📊 Menganalisis %s (%s)...", name, symbol)
}

func topMessage(entries []market.MarketEntry) string {
	var b strings.Builder
	b.WriteString("🏆 *Top Cryptocurrency (Market Cap)*\n\n")
	for i, entry := range entries {
		fmt.Fprintf(&b, "%d. *%s* - %s\n", i+1, entry.Symbol, entry.Name)
		fmt.Fprintf(&b, "   💰 $%.6g | 24h: %+.2f%% | Rank: #%d\n\n", entry.Price, entry.Change24h, entry.Rank)
	}
	b.WriteString("💡 Ketik simbol untuk menganalisis (contoh: BTC, ETH, SOL)")
	return b.String()
}

func searchMessage(query string, results []market.Suggestion) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔎 Hasil pencarian %q:\n\n", query)
	for i, s := range results {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, s.Symbol, s.Name)
	}
	b.WriteString("\n💡 Ketik simbol untuk menganalisis")
	return b.String()
}

func suggestionMessage(suggestions []market.Suggestion) string {
	var b strings.Builder
	b.WriteString("❌ Symbol tidak ditemukan. Mungkin Anda maksud:\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, s.Symbol, s.Name)
	}
	b.WriteString("\nSilakan ketik simbol yang tepat.")
	return b.String()
}

// analysisErrorMessage maps a pipeline failure to a user-facing reply. Every
// terminal outcome kind reads differently so the user knows what to fix.
func analysisErrorMessage(err error) string {
	var ambiguous *market.AmbiguousError
	if errors.As(err, &ambiguous) {
		if len(ambiguous.Suggestions) == 0 {
			return unknownMessage
		}
		return suggestionMessage(ambiguous.Suggestions)
	}

	var insufficient *market.InsufficientDataError
	if errors.As(err, &insufficient) {
		return fmt.Sprintf("❌ Data belum cukup untuk dianalisis (%d sampel). Coba koin lain.", insufficient.Count)
	}

	var computation *market.ComputationError
	if errors.As(err, &computation) {
		return "❌ Perhitungan indikator gagal. Silakan coba lagi."
	}

	if errors.Is(err, market.ErrNotFound) {
		return unknownMessage
	}

	var status *fetch.StatusError
	if errors.Is(err, fetch.ErrRetriesExhausted) || errors.As(err, &status) {
		return upstreamBusyText
	}

	if llm.IsRateLimited(err) {
		return rateLimitedText
	}

	return fmt.Sprintf("❌ Terjadi kesalahan: %v", err)
}
