// internal/tui/model.go

// Package tui is the terminal front end. It is the only goroutine that
// touches the session machine: adapter events and key presses are applied
// one at a time from the bubbletea update loop.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jason-s-yu/bombparty/internal/conn"
	"github.com/jason-s-yu/bombparty/internal/countdown"
	"github.com/jason-s-yu/bombparty/internal/session"
	"github.com/jason-s-yu/bombparty/internal/views"
	"github.com/sirupsen/logrus"
)

const tickInterval = 100 * time.Millisecond

type (
	adapterEventMsg conn.Event
	linkClosedMsg   struct{}
	tickMsg         time.Time
)

// Model drives the session machine from the terminal.
type Model struct {
	machine *session.Machine
	events  <-chan conn.Event
	timer   *countdown.Timer
	logger  *logrus.Logger
	now     func() time.Time

	name   textinput.Model
	answer textinput.Model
	bar    progress.Model

	// last seen phase; a change resets the drafts
	phase      session.Phase
	presetName string

	linkErr error
	width   int
}

// New builds the UI for machine. events is the adapter's event stream;
// presetName prefills the name draft.
func New(machine *session.Machine, events <-chan conn.Event, timer *countdown.Timer, logger *logrus.Logger, presetName string) *Model {
	name := textinput.New()
	name.Placeholder = "Ton pseudo"
	name.CharLimit = 32
	name.Width = 30
	name.SetValue(presetName)

	answer := textinput.New()
	answer.CharLimit = 64
	answer.Width = 30

	m := &Model{
		machine: machine,
		events:  events,
		timer:   timer,
		logger:  logger,
		now:     time.Now,
		name:    name,
		answer:  answer,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(40)),
		phase:   machine.State().Phase,

		presetName: presetName,
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.events), tick(), textinput.Blink)
}

// waitForEvent turns the next adapter event into a message.
func waitForEvent(events <-chan conn.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return linkClosedMsg{}
		}
		return adapterEventMsg(ev)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(40, max(10, msg.Width-8))
		return m, nil

	case adapterEventMsg:
		m.applyEvent(conn.Event(msg))
		return m, tea.Batch(m.sync(), waitForEvent(m.events))

	case linkClosedMsg:
		m.logger.Debug("tui: adapter event stream closed")
		return m, nil

	case tickMsg:
		return m, tick()

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		return m, tea.Batch(cmd, m.sync())
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	var answerCmd tea.Cmd
	m.answer, answerCmd = m.answer.Update(msg)
	return m, tea.Batch(cmd, answerCmd)
}

func (m *Model) applyEvent(ev conn.Event) {
	switch ev.Kind {
	case conn.EventConnected:
		m.linkErr = nil
		m.machine.SetConnected(true)
	case conn.EventDisconnected:
		m.linkErr = ev.Err
		m.machine.SetConnected(false)
	case conn.EventMessage:
		m.machine.Receive(ev.Message)
	}
}

// sync resets the drafts on a phase or turn change and keeps input focus
// on whichever field the current screen accepts.
func (m *Model) sync() tea.Cmd {
	st := m.machine.State()

	if st.Phase != m.phase {
		m.name.Reset()
		m.answer.Reset()
		if st.Phase == session.NotJoined {
			m.name.SetValue(m.presetName)
		}
		m.phase = st.Phase
	}

	if st.Phase == session.ActiveGame {
		if m.timer.Observe(st.Game.TurnKey(), m.now()) {
			m.answer.Reset()
		}
	} else {
		m.timer.Stop()
	}

	var cmd tea.Cmd
	switch screen := views.Project(st).(type) {
	case views.LobbyEntry:
		m.answer.Blur()
		if !m.name.Focused() {
			cmd = m.name.Focus()
		}
	case views.ActiveGame:
		m.name.Blur()
		m.answer.Placeholder = screen.Placeholder
		if screen.InputEnabled() {
			if !m.answer.Focused() {
				cmd = m.answer.Focus()
			}
		} else {
			m.answer.Blur()
		}
	default:
		m.name.Blur()
		m.answer.Blur()
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}

	switch screen := views.Project(m.machine.State()).(type) {
	case views.LobbyEntry:
		if msg.Type == tea.KeyEnter {
			if screen.CanJoin(m.name.Value()) {
				m.machine.Join(m.name.Value())
			}
			return nil
		}
		var cmd tea.Cmd
		m.name, cmd = m.name.Update(msg)
		return cmd

	case views.WaitingRoom:
		switch msg.String() {
		case "enter", "v":
			if screen.VoteEnabled {
				m.machine.VoteStart()
			}
		case "q", "esc":
			return tea.Quit
		}
		return nil

	case views.ActiveGame:
		if msg.Type == tea.KeyEsc {
			return tea.Quit
		}
		if !screen.InputEnabled() {
			return nil
		}
		if msg.Type == tea.KeyEnter {
			if screen.CanSubmit(m.answer.Value()) && m.machine.Submit(m.answer.Value()) {
				m.answer.Reset()
			}
			return nil
		}
		before := m.answer.Value()
		var cmd tea.Cmd
		m.answer, cmd = m.answer.Update(msg)
		if after := m.answer.Value(); after != before {
			m.machine.UpdateTyping(after)
		}
		return cmd

	case views.GameOver:
		switch msg.String() {
		case "q", "esc", "enter":
			return tea.Quit
		}
	}
	return nil
}
