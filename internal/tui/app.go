// Package tui renders the interactive article browser. The pipeline
// coordinator does the filtering work on its own goroutines; this
// package translates its deliveries into bubbletea messages and key
// presses into query changes.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jblairy/techwatch/internal/browser"
	"github.com/jblairy/techwatch/internal/config"
	"github.com/jblairy/techwatch/internal/feed"
	"github.com/jblairy/techwatch/internal/pipeline"
	"github.com/jblairy/techwatch/internal/record"
	"github.com/jblairy/techwatch/internal/storage"
)

type focusPane int

const (
	focusList focusPane = iota
	focusPreview
)

type mode int

const (
	modeList mode = iota
	modeFilter
	modeHelp
	modeInfo
)

type App struct {
	cfg    *config.Config
	db     *storage.DB
	coord  *pipeline.Coordinator
	sink   *programSink
	logger *slog.Logger

	// Display state rebuilt from pipeline deliveries. gen is the newest
	// generation observed; older messages are dropped on arrival.
	rows        []row
	gen         uint64
	hasMore     bool
	emptyResult bool
	busy        bool

	cursor        int
	focus         focusPane
	mode          mode
	previewScroll int

	filter  filterBar
	spinner spinner.Model

	meta       storage.Metadata
	refreshing bool
	err        error

	width  int
	height int

	initial []record.Record
	now     func() time.Time
}

// RunOpts holds everything the browser needs at launch.
type RunOpts struct {
	Cfg     *config.Config
	DB      *storage.DB
	Records []record.Record
	Meta    storage.Metadata
	Logger  *slog.Logger
}

func NewApp(opts RunOpts) *App {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = spinnerStyle

	sink := newProgramSink()
	coord := pipeline.New(sink, opts.Cfg.SourceNames(), pipeline.Config{
		BatchSize: opts.Cfg.BatchSize,
		Debounce:  opts.Cfg.DebounceDuration(),
		CacheSize: opts.Cfg.CacheSize,
	})
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	coord.SetLogger(logger)

	return &App{
		cfg:     opts.Cfg,
		db:      opts.DB,
		coord:   coord,
		sink:    sink,
		logger:  logger,
		filter:  newFilterBar(nil),
		spinner: sp,
		meta:    opts.Meta,
		initial: opts.Records,
		busy:    true,
		now:     time.Now,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.sink.listen(),
		a.spinner.Tick,
		a.setStoreCmd(a.initial),
	)
}

// originsMsg refreshes the filter bar after a store replacement.
type originsMsg struct {
	origins []string
}

func (a *App) setStoreCmd(records []record.Record) tea.Cmd {
	coord := a.coord
	return func() tea.Msg {
		coord.SetStore(records)
		return originsMsg{origins: coord.Origins()}
	}
}

// stale reports whether gen belongs to a superseded query cycle, and
// adopts gen as the newest seen otherwise.
func (a *App) stale(gen uint64) bool {
	if gen < a.gen {
		return true
	}
	a.gen = gen
	return false
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		a.err = nil
		return a.handleKey(msg)

	case clearMsg:
		if !a.stale(msg.gen) {
			a.rows = nil
			a.cursor = 0
			a.previewScroll = 0
			a.emptyResult = false
			a.hasMore = false
		}
		return a, a.sink.listen()

	case presentMsg:
		if !a.stale(msg.gen) {
			a.rows = appendGroup(a.rows, msg.origin, msg.records)
			if a.cursor >= len(a.rows) || a.rows[a.cursor].kind != rowRecord {
				if i := firstRecord(a.rows); i >= 0 {
					a.cursor = i
				}
			}
		}
		return a, a.sink.listen()

	case emptyMsg:
		if !a.stale(msg.gen) {
			a.rows = nil
			a.cursor = 0
			a.emptyResult = true
			a.hasMore = false
			a.busy = false
		}
		return a, a.sink.listen()

	case loadMoreMsg:
		if !a.stale(msg.gen) {
			a.hasMore = msg.available
			a.busy = false
		}
		return a, a.sink.listen()

	case originsMsg:
		a.filter.setOrigins(msg.origins)
		return a, nil

	case refreshDoneMsg:
		a.refreshing = false
		if msg.err != nil {
			a.err = msg.err
			a.logger.Warn("refresh finished with errors", "error", msg.err)
		}
		if msg.records == nil {
			return a, nil
		}
		a.meta = msg.meta
		a.busy = true
		a.logger.Info("refresh complete", "added", msg.added, "total", len(msg.records))
		return a, a.setStoreCmd(msg.records)

	case errMsg:
		a.err = msg.err
		return a, nil

	case spinner.TickMsg:
		if a.busy || a.refreshing {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		a.coord.Close()
		return a, tea.Quit
	}

	switch a.mode {
	case modeFilter:
		return a.handleFilterKey(msg)
	case modeHelp, modeInfo:
		switch msg.String() {
		case "q", "esc", "?", "i":
			a.mode = modeList
		}
		return a, nil
	}

	switch msg.String() {
	case "q":
		a.coord.Close()
		return a, tea.Quit
	case "j", "down":
		if a.focus == focusList {
			if i := nextRecord(a.rows, a.cursor+1, 1); i >= 0 {
				a.cursor = i
				a.previewScroll = 0
			}
		} else {
			a.previewScroll++
		}
		return a, nil
	case "k", "up":
		if a.focus == focusList {
			if i := nextRecord(a.rows, a.cursor-1, -1); i >= 0 {
				a.cursor = i
				a.previewScroll = 0
			}
		} else if a.previewScroll > 0 {
			a.previewScroll--
		}
		return a, nil
	case "tab":
		if a.focus == focusList {
			a.focus = focusPreview
		} else {
			a.focus = focusList
		}
		return a, nil
	case "o", "enter":
		if rec := a.selected(); rec != nil {
			return a, openBrowserCmd(rec.URL)
		}
		return a, nil
	case "m":
		if a.hasMore && !a.busy {
			a.busy = true
			a.coord.LoadMore()
			return a, a.spinner.Tick
		}
		return a, nil
	case "f":
		a.mode = modeFilter
		a.filter.enter()
		return a, nil
	case "p":
		a.filter.cyclePeriod()
		return a, a.applyQuery()
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, tea.Batch(a.doRefresh(), a.spinner.Tick)
		}
		return a, nil
	case "i":
		a.mode = modeInfo
		return a, nil
	case "?":
		a.mode = modeHelp
		return a, nil
	}

	return a, nil
}

func (a *App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "f", "q":
		a.mode = modeList
		a.filter.exit()
		return a, nil
	case "tab":
		a.filter.switchLane()
		return a, nil
	case "left", "h":
		a.filter.moveCursor(-1)
		return a, nil
	case "right", "l":
		a.filter.moveCursor(1)
		return a, nil
	case " ", "enter":
		if a.filter.applyCursor() {
			return a, a.applyQuery()
		}
		return a, nil
	}
	return a, nil
}

// applyQuery hands the filter selection to the pipeline. The debounce
// window collapses rapid changes into one evaluation.
func (a *App) applyQuery() tea.Cmd {
	a.busy = true
	a.coord.SetQuery(a.filter.queryValue())
	return a.spinner.Tick
}

func (a *App) selected() *record.Record {
	if a.cursor < len(a.rows) && a.rows[a.cursor].kind == rowRecord {
		return &a.rows[a.cursor].rec
	}
	return nil
}

// doRefresh crawls all enabled sources, merges the results into the
// database and reloads it.
func (a *App) doRefresh() tea.Cmd {
	cfg := a.cfg
	db := a.db
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		result := feed.FetchAll(ctx, cfg.EnabledSources())

		var added int
		if len(result.Records) > 0 {
			var err error
			added, err = db.Save(result.Records)
			if err != nil {
				return refreshDoneMsg{err: err}
			}
		}

		records, meta, err := db.Load()
		if err != nil {
			return refreshDoneMsg{err: err}
		}
		return refreshDoneMsg{records: records, meta: meta, added: added, err: result.Err}
	}
}

func openBrowserCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := browser.Open(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

func (a *App) View() string {
	if a.width == 0 {
		return lipgloss.NewStyle().Foreground(colorAccent).Render("  techwatch")
	}

	if a.mode == modeHelp {
		return a.renderHelp()
	}
	if a.mode == modeInfo {
		return a.renderInfo()
	}

	headerHeight := 1
	filterHeight := 1
	statusHeight := 1
	contentHeight := a.height - headerHeight - filterHeight - statusHeight - 4 // borders
	if contentHeight < 3 {
		contentHeight = 3
	}

	listWidth := int(float64(a.width) * 0.4)
	previewWidth := a.width - listWidth - 1

	headerLeft := headerStyle.Render("techwatch")
	headerRight := headerDateStyle.Render(a.now().Format("Jan 2"))
	headerGap := a.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight)
	if headerGap < 0 {
		headerGap = 0
	}
	header := headerLeft + fmt.Sprintf("%*s", headerGap, "") + headerRight

	filterRow := a.filter.render(a.width)

	innerListW := listWidth - 4
	var listContent string
	if a.emptyResult {
		listContent = centerText("No articles in this period", innerListW, contentHeight)
	} else {
		listContent = renderList(a.rows, a.cursor, contentHeight, innerListW, a.now())
	}

	listStyle := listPaneStyle
	if a.focus == focusList {
		listStyle = listPaneActiveStyle
	}
	listPane := listStyle.Width(listWidth - 2).Height(contentHeight).Render(listContent)

	previewStyle := previewPaneStyle
	if a.focus == focusPreview {
		previewStyle = previewPaneActiveStyle
	}
	previewContent := renderPreview(a.selected(), previewWidth-4, contentHeight, a.previewScroll)
	previewPane := previewStyle.Width(previewWidth - 2).Height(contentHeight).Render(previewContent)

	content := lipgloss.JoinHorizontal(lipgloss.Top, listPane, previewPane)

	filtered, total := a.coord.Counts()
	status := renderStatusBar(
		recordCount(a.rows), filtered, total,
		a.filter.periodLabel(), a.filter.originLabel(),
		a.hasMore, a.width, a.mode == modeFilter,
	)

	if a.busy || a.refreshing {
		status = a.spinner.View() + " " + status
	}
	if a.err != nil {
		status = lipgloss.NewStyle().Foreground(colorAccent).Render(a.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, filterRow, content, status)
}

func (a *App) renderHelp() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("techwatch")
	dim := infoLabelStyle

	help := title + dim.Render(" — Keyboard Shortcuts") + "\n\n" +
		dim.Render("Navigation") + "\n" +
		"  j/k, ↑/↓     Move through articles\n" +
		"  tab           Switch focus between list and preview\n\n" +
		dim.Render("Actions") + "\n" +
		"  o, enter      Open article in browser\n" +
		"  m             Load more results\n" +
		"  r             Refresh all sources\n" +
		"  p             Cycle date period\n" +
		"  f             Open filter bar\n\n" +
		dim.Render("Filter Bar") + "\n" +
		"  tab           Switch between period and source\n" +
		"  ←/→, h/l     Move selection\n" +
		"  space/enter   Apply\n" +
		"  esc, f        Close\n\n" +
		dim.Render("General") + "\n" +
		"  i             Database info\n" +
		"  ?             Toggle this help\n" +
		"  q, ctrl+c    Quit"

	card := infoCardStyle.Render(help)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

func (a *App) renderInfo() string {
	title := lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Render("Database")
	dim := infoLabelStyle

	generated := "never"
	if !a.meta.GeneratedAt.IsZero() {
		generated = a.meta.GeneratedAt.Format("Jan 2, 2006 15:04")
	}
	span := "n/a"
	if a.meta.DateRange != nil {
		span = fmt.Sprintf("%s → %s (%d days)",
			a.meta.DateRange.Earliest, a.meta.DateRange.Latest, a.meta.DateRange.DaysRange)
	}

	info := title + "\n\n" +
		dim.Render("Path       ") + a.db.Path() + "\n" +
		dim.Render("Generated  ") + generated + "\n" +
		dim.Render("Articles   ") + fmt.Sprintf("%d", a.meta.TotalArticles) + "\n" +
		dim.Render("Sources    ") + fmt.Sprintf("%d", len(a.meta.Sources)) + "\n" +
		dim.Render("Date range ") + span + "\n" +
		dim.Render("Format     ") + a.meta.FormatVersion

	card := infoCardStyle.Render(info)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card)
}

// Run starts the browser.
func Run(opts RunOpts) error {
	app := NewApp(opts)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
