// Package tui renders a dashboard Session in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/dashboard"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/status"
	"github.com/adethefirst1/odysia/internal/tui/keys"
	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/adethefirst1/odysia/internal/tui/views"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

const (
	scopeList    = "list"
	scopeThread  = "thread"
	scopeOverlay = "overlay"

	pageMain    = "main"
	pageHelp    = "help"
	pageDetails = "details"
)

// Options wires an App to its Session.
type Options struct {
	SessionName string
	Session     *dashboard.Session
	Link        *status.Machine
	Bus         *bus.Bus
	// Backend, if set, feeds the header's backend counters.
	Backend *rpc.BackendClient
	Logger  *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app     *tview.Application
	theme   *ui.Theme
	opts    Options
	session *dashboard.Session
	logger  *zap.Logger

	pages    *tview.Pages
	body     *tview.Flex
	bodyRow  *tview.Flex
	registry *keys.Registry
	flash    *ui.FlashModel

	info      *ui.SessionInfo
	menu      *ui.Menu
	logo      *ui.Logo
	crumbs    *ui.Crumbs
	prompt    *ui.Prompt
	flashBar  *ui.FlashBar
	statusBar *views.StatusBar
	list      *views.ConversationList
	thread    *views.MessageThread
	details   *views.ConversationInfo
	help      *views.HelpView

	filter        string
	promptOpen    bool
	layout        *chat.ViewState
	backendStatus atomic.Pointer[rpc.StatusResponse]
	redraw        atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application.
func NewApp(opts Options) *App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	theme := ui.DefaultTheme()
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:       tview.NewApplication(),
		theme:     theme,
		opts:      opts,
		session:   opts.Session,
		logger:    opts.Logger,
		pages:     tview.NewPages(),
		body:      tview.NewFlex(),
		registry:  keys.NewRegistry(),
		flash:     ui.NewFlashModel(),
		info:      ui.NewSessionInfo(theme),
		menu:      ui.NewMenu(theme),
		logo:      ui.NewLogo(theme, opts.Session.Role().Label()),
		crumbs:    ui.NewCrumbs(theme),
		prompt:    ui.NewPrompt(theme),
		flashBar:  ui.NewFlashBar(theme),
		statusBar: views.NewStatusBar(theme),
		list:      views.NewConversationList(theme),
		thread:    views.NewMessageThread(theme),
		details:   views.NewConversationInfo(theme),
		help:      views.NewHelpView(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: ':', Visible: true,
		Hint:    ui.MenuHint{Key: ":", Description: "Command"},
		Handler: func() { a.openPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '/', Visible: true,
		Hint:    ui.MenuHint{Key: "/", Description: "Filter"},
		Handler: func() { a.openPrompt(ui.PromptFilter) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: '?', Visible: true,
		Hint:    ui.MenuHint{Key: "?", Description: "Help"},
		Handler: func() { a.showOverlay(pageHelp) },
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Visible: true,
		Hint:    ui.MenuHint{Key: "q", Description: "Quit"},
		Handler: func() { a.Stop() },
	})

	a.registry.Add(scopeList, &keys.Action{
		Key: tcell.KeyRune, Rune: '0',
		Handler: func() { a.setFilter("") },
	})
	for n := 1; n <= 9; n++ {
		a.registry.Add(scopeList, &keys.Action{
			Key: tcell.KeyRune, Rune: rune('0' + n),
			Handler: func() {
				if id := a.list.IDAt(n); id != "" {
					a.selectConversation(id)
				}
			},
		})
	}

	a.registry.Add(scopeThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.Add(scopeThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r',
		Handler: a.retry,
	})
	a.registry.Add(scopeThread, &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Handler: func() { a.showOverlay(pageDetails) },
	})
	a.registry.Add(scopeThread, &keys.Action{
		Key:     tcell.KeyEscape,
		Handler: a.back,
	})

	a.registry.Add(scopeOverlay, &keys.Action{
		Key:     tcell.KeyEscape,
		Handler: a.closeOverlay,
	})
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, _ int) {
		if id := a.list.IDAt(row); id != "" {
			a.selectConversation(id)
		}
	})

	a.thread.SetOnDraft(func(text string) {
		a.session.UpdateDraft(text)
	})
	a.thread.SetOnKey(func(k chat.EditKey) {
		m, err := a.session.Press(k)
		if err != nil {
			a.flash.Err(fmt.Errorf("send: %w", err))
		}
		if m != nil {
			a.logger.Debug("message submitted", zap.String("local_id", m.ID), zap.String("conversation_id", m.ConversationID))
		}
		a.render()
	})

	a.prompt.SetOnChange(func(mode ui.PromptMode, text string) {
		if mode == ui.PromptFilter {
			a.setFilter(text)
		}
	})
	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.closePrompt()
		if mode == ui.PromptCommand {
			a.runCommand(ParseCommand(text))
		}
	})
	a.prompt.SetOnCancel(a.closePrompt)
}

func (a *App) setupLayout() {
	header := tview.NewFlex().
		AddItem(a.info, 0, 2, false).
		AddItem(a.menu, 0, 3, false).
		AddItem(a.logo, 18, 0, false)

	a.bodyRow = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.body, 0, 1, true)

	main := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 5, 0, false).
		AddItem(a.bodyRow, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.pages.AddPage(pageMain, main, true, true)
	a.pages.AddPage(pageHelp, a.help, true, false)
	a.pages.AddPage(pageDetails, a.details, true, false)
	a.app.SetRoot(a.pages, true)

	// The viewport width decides between one and two panes.
	a.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		w, _ := screen.Size()
		if a.session.SetViewportWidth(w) {
			a.queueRender()
		}
		return false
	})

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Text inputs get every key; they handle their own Esc.
		if a.prompt.HasFocus() {
			return event
		}
		if a.thread.Composer().HasFocus() {
			if event.Key() == tcell.KeyEscape {
				a.app.SetFocus(a.thread.Messages())
				return nil
			}
			return event
		}
		if a.registry.HandleEvent(a.scope(), event) {
			return nil
		}
		return event
	})
}

// scope names the key scope of whatever has focus.
func (a *App) scope() string {
	if front, _ := a.pages.GetFrontPage(); front != pageMain {
		return scopeOverlay
	}
	if a.list.HasFocus() {
		return scopeList
	}
	return scopeThread
}

func (a *App) selectConversation(id string) {
	if err := a.session.Select(id); err != nil {
		a.flash.Err(err)
		return
	}
	a.render()
	a.app.SetFocus(a.thread.Composer())
}

func (a *App) back() {
	if !a.session.GoBack() {
		a.app.SetFocus(a.list.Table)
		return
	}
	a.render()
}

func (a *App) retry() {
	id := a.thread.LastFailed()
	if id == "" {
		a.flash.Info("Nothing to retry")
		return
	}
	if _, err := a.session.Resend(id); err != nil {
		a.flash.Err(err)
		return
	}
	a.flash.Info("Retrying message")
	a.render()
}

func (a *App) setFilter(text string) {
	a.filter = text
	a.render()
}

func (a *App) openPrompt(mode ui.PromptMode) {
	text := ""
	if mode == ui.PromptFilter {
		text = a.filter
	}
	a.prompt.Activate(mode, text)
	if !a.promptOpen {
		a.bodyRow.AddItem(a.prompt, 3, 0, false)
		a.promptOpen = true
	}
	a.app.SetFocus(a.prompt)
}

func (a *App) closePrompt() {
	if a.promptOpen {
		a.bodyRow.RemoveItem(a.prompt)
		a.promptOpen = false
	}
	a.focusPane(a.session.ViewState())
}

func (a *App) showOverlay(page string) {
	if page == pageDetails {
		snap := a.session.Snapshot(a.filter)
		if snap.Active == nil {
			return
		}
		a.details.Update(snap.Active, snap.Messages, snap.Role.PeerNoun())
	}
	a.pages.SwitchToPage(page)
	a.menu.Update(a.registry.Hints(scopeOverlay))
}

func (a *App) closeOverlay() {
	a.pages.SwitchToPage(pageMain)
	a.render()
}

func (a *App) runCommand(cmd Command) {
	switch cmd.Canonical() {
	case "quit":
		a.Stop()
	case "help":
		a.showOverlay(pageHelp)
	case "filter":
		a.setFilter(cmd.Args)
	case "back":
		a.back()
	case "retry":
		a.retry()
	case "open":
		convs := a.session.Conversations(cmd.Args)
		if len(convs) == 0 {
			a.flash.Warn(fmt.Sprintf("No conversation matches %q", cmd.Args))
			return
		}
		a.selectConversation(convs[0].ID)
	default:
		a.flash.Warn(fmt.Sprintf("Unknown command %q", cmd.Name))
	}
}

// render pulls a snapshot and redraws every pane. UI goroutine only.
func (a *App) render() {
	snap := a.session.Snapshot(a.filter)
	role := snap.Role
	total := len(a.session.Conversations(""))

	a.list.Update(snap.Conversations, snap.View.SelectedConversationID, a.filter, total)
	a.thread.Update(snap.Active, snap.Messages, role.PeerNoun())
	a.thread.SetDraft(snap.Composer.Draft)

	trail := []string{role.Label()}
	if snap.Active != nil && snap.View.ThreadVisible() {
		trail = append(trail, snap.Active.PeerName)
	}
	a.crumbs.Update(trail...)

	link := status.Idle
	if a.opts.Link != nil {
		link = a.opts.Link.Current()
	}
	a.statusBar.Update(role.Label(), link, snap.Badge, snap.View.Narrow)
	a.flashBar.Update(a.flash.Current())

	data := ui.SessionData{
		Session:       a.opts.SessionName,
		Role:          string(role),
		Link:          string(link),
		Conversations: total,
		Unread:        snap.Badge,
	}
	if st := a.backendStatus.Load(); st != nil {
		data.PendingSends = st.PendingSends
		data.Uptime = time.Duration(st.UptimeMs) * time.Millisecond
	}
	a.info.Update(data)

	if front, _ := a.pages.GetFrontPage(); front == pageMain {
		a.applyLayout(snap.View)
		a.menu.Update(a.hints())
	}
}

func (a *App) hints() []ui.MenuHint {
	var hints []ui.MenuHint
	switch a.scope() {
	case scopeList:
		hints = a.list.Hints()
	case scopeThread:
		hints = a.thread.Hints()
	}
	return append(hints, a.registry.Hints("")...)
}

// applyLayout rebuilds the body when the visible panes change.
func (a *App) applyLayout(v chat.ViewState) {
	if a.layout != nil && a.layout.Narrow == v.Narrow && a.layout.ActivePane == v.ActivePane {
		return
	}
	a.body.Clear()
	if v.ListVisible() {
		a.body.AddItem(a.list, 0, 2, false)
	}
	if v.ThreadVisible() {
		a.body.AddItem(a.thread, 0, 3, false)
	}
	a.layout = &v
	if !a.promptOpen {
		a.focusPane(v)
	}
}

func (a *App) focusPane(v chat.ViewState) {
	if v.Narrow && v.ActivePane == chat.PaneThread {
		a.app.SetFocus(a.thread.Messages())
		return
	}
	a.app.SetFocus(a.list.Table)
}

// watch coalesces bus traffic into redraws.
func (a *App) watch() {
	events, unsub := a.opts.Bus.Subscribe("", 256)
	defer unsub()
	for {
		select {
		case evt := <-events:
			if evt.Kind == dashboard.KindChanged || evt.Kind == chat.KindBadgeChanged || evt.Kind == status.KindLinkChanged {
				a.queueRender()
			}
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) queueRender() {
	if !a.redraw.CompareAndSwap(false, true) {
		return
	}
	a.app.QueueUpdateDraw(func() {
		a.redraw.Store(false)
		a.render()
	})
}

// pollBackend refreshes the header counters and expires flash messages.
func (a *App) pollBackend() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		if a.opts.Backend != nil {
			ctx, cancel := context.WithTimeout(a.ctx, 2*time.Second)
			st, err := a.opts.Backend.GetStatus(ctx)
			cancel()
			if err == nil {
				a.backendStatus.Store(&st)
			} else if !errors.Is(err, context.Canceled) {
				a.logger.Debug("backend status unavailable", zap.Error(err))
			}
		}
		a.queueRender()
		select {
		case <-ticker.C:
		case <-a.ctx.Done():
			return
		}
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.render()
	if a.opts.Bus != nil {
		go a.watch()
	}
	go a.pollBackend()
	return a.app.Run()
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
