// Package ticker renders the scrolling headline and stock strips in the
// terminal with bubbletea.
package ticker

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"ticker_go/internal/domain"
	"ticker_go/internal/event"
	"ticker_go/internal/scroll"
	"ticker_go/internal/settings"
)

// Actions are the commands bound to keys.
type Actions interface {
	RefreshHeadlines(ctx context.Context) bool
	RefreshStocks(ctx context.Context) bool
	UpdateSettings(ctx context.Context, mutate func(settings.Settings) (settings.Settings, error)) (settings.Settings, error)
}

// keyMap holds every binding of the ticker.
type keyMap struct {
	RefreshNews   key.Binding
	RefreshStocks key.Binding
	CycleMode     key.Binding
	Quit          key.Binding
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.RefreshNews, k.RefreshStocks, k.CycleMode, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var keys = keyMap{
	RefreshNews:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh headlines")),
	RefreshStocks: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "refresh stocks")),
	CycleMode:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "display mode")),
	Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// nextMode cycles both -> news -> stocks -> both.
func nextMode(m settings.DisplayMode) settings.DisplayMode {
	switch m {
	case settings.DisplayBoth:
		return settings.DisplayNews
	case settings.DisplayNews:
		return settings.DisplayStocks
	default:
		return settings.DisplayBoth
	}
}

// Options tunes the model.
type Options struct {
	ReducedMotion bool
	Frame         time.Duration
}

type eventMsg struct{ ev event.Event }

type frameMsg time.Time

type refreshDoneMsg struct {
	feed      domain.Feed
	refreshed bool
}

type settingsDoneMsg struct{ err error }

// Model is the root bubbletea model.
type Model struct {
	ctx     context.Context
	actions Actions
	frame   time.Duration

	settings settings.Settings
	styles   styles

	news      *Strip
	stocks    *Strip
	newsLoop  *scroll.Loop
	stockLoop *scroll.Loop

	headlines      []domain.Headline
	quotes         []domain.StockQuote
	newsRefreshed  time.Time
	stockRefreshed time.Time

	help       help.Model
	notice     string
	refreshing map[domain.Feed]bool
	width      int
	lastFrame  time.Time
}

// NewModel creates the model. Feed content arrives as events.
func NewModel(ctx context.Context, actions Actions, s settings.Settings, opts Options) *Model {
	if opts.Frame <= 0 {
		opts.Frame = 50 * time.Millisecond
	}
	m := &Model{
		ctx:        ctx,
		actions:    actions,
		frame:      opts.Frame,
		settings:   s,
		styles:     newStyles(s),
		news:       NewStrip(s.NewsTickerDirection, opts.ReducedMotion),
		stocks:     NewStrip(s.StockTickerDirection, opts.ReducedMotion),
		help:       help.New(),
		refreshing: make(map[domain.Feed]bool),
	}
	m.newsLoop = scroll.NewLoop(m.news, s.NewsTickerSpeed)
	m.stockLoop = scroll.NewLoop(m.stocks, s.StockTickerSpeed)
	m.setQuotes(nil, time.Time{})
	return m
}

// Init starts the frame clock.
func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.frame, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

// Update handles messages and returns the updated model and any commands.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.news.SetWidth(msg.Width)
		m.stocks.SetWidth(msg.Width)
		m.newsLoop.Resize()
		m.stockLoop.Resize()
		return m, nil

	case frameMsg:
		now := time.Time(msg)
		if !m.lastFrame.IsZero() {
			elapsed := now.Sub(m.lastFrame)
			if !m.newsLoop.Pending() {
				m.news.Advance(elapsed)
			}
			if !m.stockLoop.Pending() {
				m.stocks.Advance(elapsed)
			}
		}
		m.lastFrame = now
		return m, m.tick()

	case eventMsg:
		m.apply(msg.ev)
		return m, nil

	case refreshDoneMsg:
		m.refreshing[msg.feed] = false
		if msg.refreshed {
			if msg.feed == domain.FeedHeadlines {
				m.notice = "Headlines refreshed"
			} else {
				m.notice = "Stock quotes refreshed"
			}
		}
		return m, nil

	case settingsDoneMsg:
		if msg.err != nil {
			m.notice = "Settings not saved: " + msg.err.Error()
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.RefreshNews):
		return m, m.refresh(domain.FeedHeadlines)
	case key.Matches(msg, keys.RefreshStocks):
		return m, m.refresh(domain.FeedQuotes)
	case key.Matches(msg, keys.CycleMode):
		return m, m.cycleMode()
	}
	return m, nil
}

// cycleMode saves the next display mode. The new settings come back as a
// settings event.
func (m *Model) cycleMode() tea.Cmd {
	if m.actions == nil {
		return nil
	}
	ctx, actions := m.ctx, m.actions
	return func() tea.Msg {
		_, err := actions.UpdateSettings(ctx, func(s settings.Settings) (settings.Settings, error) {
			s.TickerDisplayMode = nextMode(s.DisplayMode())
			return s, nil
		})
		return settingsDoneMsg{err: err}
	}
}

// refresh runs one refresh command in the background. A feed that is
// already refreshing ignores the key.
func (m *Model) refresh(feed domain.Feed) tea.Cmd {
	if m.actions == nil || m.refreshing[feed] {
		return nil
	}
	m.refreshing[feed] = true
	ctx, actions := m.ctx, m.actions
	return func() tea.Msg {
		var ok bool
		if feed == domain.FeedHeadlines {
			ok = actions.RefreshHeadlines(ctx)
		} else {
			ok = actions.RefreshStocks(ctx)
		}
		return refreshDoneMsg{feed: feed, refreshed: ok}
	}
}

func (m *Model) apply(ev event.Event) {
	switch e := ev.(type) {
	case *event.HeadlinesEvent:
		m.setHeadlines(e.Headlines, e.RefreshedAt)
	case *event.QuotesEvent:
		m.setQuotes(e.Quotes, e.RefreshedAt)
	case *event.NoticeEvent:
		m.notice = e.Message
	case *event.SettingsEvent:
		m.applySettings(e.Settings)
	}
}

func (m *Model) setHeadlines(headlines []domain.Headline, refreshedAt time.Time) {
	m.headlines = headlines
	m.newsRefreshed = refreshedAt
	m.news.SetItems(headlineItems(headlines, m.settings.ShowHeadlineMeta, m.styles))
	m.newsLoop.Rebuild()
}

// setQuotes shows the sample cells for an empty list. Their footer carries
// no time.
func (m *Model) setQuotes(quotes []domain.StockQuote, refreshedAt time.Time) {
	m.quotes = quotes
	m.stockRefreshed = time.Time{}
	if len(quotes) > 0 {
		m.stockRefreshed = refreshedAt
	}
	m.stocks.SetItems(stockItems(domain.StockDisplays(quotes), m.styles))
	m.stockLoop.Rebuild()
}

// applySettings rebuilds the strips only when their content changes. Speed
// and direction only retime the running loops.
func (m *Model) applySettings(s settings.Settings) {
	prev := m.settings
	m.settings = s
	m.news.SetDirection(s.NewsTickerDirection)
	m.stocks.SetDirection(s.StockTickerDirection)
	m.newsLoop.SetSpeed(s.NewsTickerSpeed)
	m.stockLoop.SetSpeed(s.StockTickerSpeed)

	if !restyled(prev, s) {
		return
	}
	m.styles = newStyles(s)
	m.setHeadlines(m.headlines, m.newsRefreshed)
	m.setQuotes(m.quotes, m.stockRefreshed)
}

func restyled(a, b settings.Settings) bool {
	return a.ShowHeadlineMeta != b.ShowHeadlineMeta ||
		a.StockChangeColor != b.StockChangeColor ||
		a.StockChangeNegativeColor != b.StockChangeNegativeColor ||
		a.StockPriceColor != b.StockPriceColor
}

// View renders the visible sections for the display mode.
func (m *Model) View() string {
	mode := m.settings.DisplayMode()
	divider := m.styles.divider.Render(strings.Repeat("─", max(m.width, 0)))

	var lines []string
	if mode.ShowsNews() {
		lines = append(lines, m.news.View())
		if m.settings.ShowNewsFooter {
			lines = append(lines, divider, m.footer(m.newsRefreshed, keys.RefreshNews))
		}
		lines = append(lines, divider)
	}
	if mode.ShowsStocks() {
		lines = append(lines, m.stocks.View())
		if m.settings.ShowStockFooter {
			lines = append(lines, divider, m.footer(m.stockRefreshed, keys.RefreshStocks))
		}
	}

	status := m.help.ShortHelpView(keys.ShortHelp())
	if m.notice != "" {
		status = m.styles.notice.Render(m.notice) + "  " + status
	}
	lines = append(lines, "", status)
	return strings.Join(lines, "\n")
}

func (m *Model) footer(refreshedAt time.Time, binding key.Binding) string {
	text := domain.FormatLastRefreshed(refreshedAt, m.settings.UseUSDateFormat)
	h := binding.Help()
	return m.styles.footer.Render(text + "  [" + h.Key + "] " + h.Desc)
}

// Surface forwards dispatcher events into a running program.
type Surface struct {
	program *tea.Program
}

// NewSurface binds a program.
func NewSurface(program *tea.Program) *Surface {
	return &Surface{program: program}
}

func (s *Surface) Name() string { return "tui" }

func (s *Surface) Apply(ev event.Event) {
	s.program.Send(eventMsg{ev: ev})
}
