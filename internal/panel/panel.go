package panel

import (
	"context"
	"errors"
	"time"

	"codeberg.org/afewwords/companion/internal/api"
	"codeberg.org/afewwords/companion/internal/bus"
	"codeberg.org/afewwords/companion/internal/logger"
	"codeberg.org/afewwords/companion/internal/tokens"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

const (
	statusTimeout = 2 * time.Second
	defaultWrap   = 60
)

// returns a new panel model; it subscribes to the token store until it quits
func New(ctx context.Context, options Options) *Model {
	ctx, cancel := context.WithCancel(ctx)

	if options.Copy == nil {
		options.Copy = clipboard.WriteAll
	}

	if options.Policy == "" {
		options.Policy = api.PolicyLog
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = infoStyle

	m := &Model{
		ctx:       ctx,
		cancel:    cancel,
		store:     options.Store,
		session:   options.Session,
		publisher: options.Publisher,
		incoming:  options.Incoming,
		tokenCh:   make(chan tokens.TokenSet, 1),
		options:   options,
		state:     bus.State{Context: bus.ContextPanel},
		keys:      newKeyMap(),
		help:      help.New(),
		spinner:   s,
		renderer:  newRenderer(defaultWrap),
		deleting:  make(map[int64]bool),
	}

	m.tokens = options.Store.Snapshot()
	m.state.SignedIn = m.tokens.SignedIn()

	unsubscribe := options.Store.Subscribe(func(current tokens.TokenSet) {
		// keep only the latest value
		select {
		case <-m.tokenCh:
		default:
		}
		select {
		case m.tokenCh <- current:
		default:
		}
	})

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return m
}

// runs the panel on the terminal until the user quits or ctx is done
func Run(ctx context.Context, options Options) error {
	model := New(ctx, options)
	defer model.cancel()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return err
	}

	return nil
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		m.waitForTokens(),
		m.waitForEnvelope(),
		m.checkSession(),
	}

	if m.showWordList() && len(m.session.Words.State().Words) == 0 {
		cmds = append(cmds, m.loadWords("load_more", m.session.Words.LoadMore))
	}

	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// the program is gone; nothing may touch the model anymore
	if m.quitting {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.renderer = newRenderer(max(20, msg.Width-6))
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m.quit()
		}

		if key.Matches(msg, m.keys.Help) {
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}

		if m.showWordList() {
			return m.updateList(msg)
		}

		return m.updateWelcome(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tokensChangedMsg:
		m.tokens = msg.tokens
		m.state.SignedIn = msg.tokens.SignedIn()
		m.clampCursor()

		cmds := []tea.Cmd{m.waitForTokens(), m.checkSession()}
		if m.showWordList() && len(m.session.Words.State().Words) == 0 {
			cmds = append(cmds, m.loadWords("load_more", m.session.Words.LoadMore))
		}

		return m, tea.Batch(cmds...)

	case envelopeMsg:
		return m, tea.Batch(m.handleEnvelope(msg.env), m.waitForEnvelope())

	case effectsDoneMsg:
		cmds := make([]tea.Cmd, 0, len(msg.msgs))
		for _, inner := range msg.msgs {
			_, cmd := m.Update(inner)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case disconnectedMsg:
		logger.Warn("relay connection closed, cross-context updates stopped")
		return m, m.setStatus("disconnected from background")

	case wordsLoadedMsg:
		m.clampCursor()
		if err := m.options.Policy.Handle(msg.op, msg.err); err != nil {
			return m, m.setStatus("could not load words: " + errorText(err))
		}
		return m, nil

	case wordDeletedMsg:
		delete(m.deleting, msg.id)

		if msg.err != nil {
			if err := m.options.Policy.Handle("delete_word", msg.err); err != nil {
				return m, m.setStatus("could not delete: " + errorText(err))
			}
			return m, nil
		}

		m.session.Words.Remove(msg.id)
		m.clampCursor()
		return m, nil

	case statusMsg:
		return m, m.setStatus(msg.text)

	case clearStatusMsg:
		m.status = ""
		return m, nil
	}

	return m, nil
}

func (m *Model) updateWelcome(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Login):
		return m, m.publish(bus.OpenURL{URL: m.options.WebsiteLoginURL})

	case key.Matches(msg, m.keys.Register):
		return m, m.publish(bus.Register{})

	case key.Matches(msg, m.keys.Privacy):
		return m, m.publish(bus.OpenURL{URL: m.options.PrivacyURL})

	case key.Matches(msg, m.keys.Terms):
		return m, m.publish(bus.OpenURL{URL: m.options.TermsURL})
	}

	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	words := m.session.Words.State().Words

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(words)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.LoadMore):
		state := m.session.Words.State()
		if state.IsLoading || !state.HasMore {
			return m, nil
		}
		return m, m.loadWords("load_more", m.session.Words.LoadMore)

	case key.Matches(msg, m.keys.Logout):
		return m, m.logout()
	}

	if len(words) == 0 {
		return m, nil
	}

	selected := words[m.cursor]

	switch {
	case key.Matches(msg, m.keys.Delete):
		if m.deleting[selected.ID] {
			return m, nil
		}
		m.deleting[selected.ID] = true
		return m, m.deleteWord(selected.ID)

	case key.Matches(msg, m.keys.Open):
		if selected.URL == "" {
			return m, nil
		}
		return m, m.publish(bus.OpenURL{URL: selected.URL})

	case key.Matches(msg, m.keys.Copy):
		if err := m.options.Copy(selected.Word); err != nil {
			logger.ErrorErr(err, "failed to copy word")
			return m, m.setStatus("could not copy")
		}
		return m, m.setStatus("copied " + selected.Word)
	}

	return m, nil
}

// runs the effects the panel plans for a routed message
func (m *Model) handleEnvelope(env bus.Envelope) tea.Cmd {
	state, effects := bus.Reduce(m.state, env)
	m.state = state

	var cmds []tea.Cmd
	for _, effect := range effects {
		switch e := effect.(type) {
		case bus.SetTokens:
			cmds = append(cmds, m.setTokens(e.Tokens))

		case bus.ClearSession:
			cmds = append(cmds, m.clearSession())

		case bus.RefreshWords:
			if e.Full {
				cmds = append(cmds, m.loadWords("reload", m.session.Words.Reload))
			} else {
				cmds = append(cmds, m.loadWords("refresh", m.session.Words.Refresh))
			}
		}
	}

	if len(cmds) == 0 {
		return nil
	}

	// in order: tokens must be stored before a reload reads them
	return func() tea.Msg {
		var msgs []tea.Msg
		for _, cmd := range cmds {
			if msg := cmd(); msg != nil {
				msgs = append(msgs, msg)
			}
		}
		return effectsDoneMsg{msgs: msgs}
	}
}

// signed out, or holding an expired access token, leads to the welcome
// screen; an expired token is also logged out everywhere
func (m *Model) checkSession() tea.Cmd {
	if m.tokens.AccessToken == "" || !tokens.IsExpired(m.tokens.AccessToken) {
		return nil
	}

	logger.Info("stored access token expired, signing out")
	return m.logout()
}

func (m *Model) showWordList() bool {
	return m.tokens.AccessToken != "" && !tokens.IsExpired(m.tokens.AccessToken)
}

func (m *Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.cancel()
	return m, tea.Quit
}

func (m *Model) clampCursor() {
	count := len(m.session.Words.State().Words)

	if m.cursor >= count {
		m.cursor = count - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(text string) tea.Cmd {
	m.status = text
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

func newRenderer(wrap int) *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath("notty"),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		logger.ErrorErr(err, "failed to create definition renderer")
		return nil
	}

	return renderer
}

func errorText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return err.Error()
}
