package ticker

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"ticker_go/internal/domain"
	"ticker_go/internal/settings"
)

const (
	defaultChangeColor   = "#22c55e"
	defaultNegativeColor = "#ef4444"
	metaSeparator        = " · "
)

var titleCase = cases.Title(language.English)

type styles struct {
	headline lipgloss.Style
	meta     lipgloss.Style
	symbol   lipgloss.Style
	price    lipgloss.Style
	change   lipgloss.Style
	negative lipgloss.Style
	footer   lipgloss.Style
	notice   lipgloss.Style
	divider  lipgloss.Style
}

func colorOr(value, fallback string) lipgloss.TerminalColor {
	if v := strings.TrimSpace(value); v != "" {
		return lipgloss.Color(v)
	}
	if fallback == "" {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(fallback)
}

func newStyles(s settings.Settings) styles {
	return styles{
		headline: lipgloss.NewStyle().Bold(true),
		meta:     lipgloss.NewStyle().Faint(true),
		symbol:   lipgloss.NewStyle().Bold(true),
		price:    lipgloss.NewStyle().Foreground(colorOr(s.StockPriceColor, "")),
		change:   lipgloss.NewStyle().Foreground(colorOr(s.StockChangeColor, defaultChangeColor)),
		negative: lipgloss.NewStyle().Foreground(colorOr(s.StockChangeNegativeColor, defaultNegativeColor)),
		footer:   lipgloss.NewStyle().Faint(true),
		notice:   lipgloss.NewStyle().Foreground(lipgloss.Color("#f59e0b")),
		divider:  lipgloss.NewStyle().Faint(true),
	}
}

// headlineMeta returns the source and category labels that are present.
func headlineMeta(h domain.Headline) []string {
	var meta []string
	if source := h.SourceLabel(); source != "" {
		meta = append(meta, source)
	}
	if category := h.CategoryLabel(); category != "" {
		meta = append(meta, titleCase.String(category))
	}
	return meta
}

func headlineItems(headlines []domain.Headline, showMeta bool, st styles) []item {
	items := make([]item, 0, len(headlines))
	for _, h := range headlines {
		it := item{{text: h.Title, style: st.headline}}
		if showMeta {
			if meta := headlineMeta(h); len(meta) > 0 {
				it = append(it, segment{text: "  " + strings.Join(meta, metaSeparator), style: st.meta})
			}
		}
		items = append(items, it)
	}
	return items
}

func stockItems(stocks []domain.StockDisplay, st styles) []item {
	items := make([]item, 0, len(stocks))
	for _, s := range stocks {
		change := st.change
		if s.IsNegative {
			change = st.negative
		}
		items = append(items, item{
			{text: s.Symbol, style: st.symbol},
			{text: " "},
			{text: s.PriceText, style: st.price},
			{text: " "},
			{text: s.ChangeText, style: change},
		})
	}
	return items
}
