// Package display renders a counter controller in the terminal.
//
// The model follows the bubbletea event loop: controller state changes arrive
// as messages and the model itself is only touched from Update.
package display

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/weegigs/wee-counter-go/client"
)

// Counter is the part of the controller the display drives.
type Counter interface {
	State() client.State
	Subscribe(fn func(client.State)) func()
	Refetch(ctx context.Context) client.State
	IncrementCount(ctx context.Context) (client.State, error)
}

type stateMsg client.State

type incrementedMsg struct {
	err error
}

type Option func(model *Model)

func WithLogger(log zerolog.Logger) Option {
	return func(model *Model) {
		model.log = log
	}
}

// WithTitle names the endpoint being shown.
func WithTitle(title string) Option {
	return func(model *Model) {
		model.title = title
	}
}

type Model struct {
	ctx     context.Context
	counter Counter
	log     zerolog.Logger
	title   string

	changes     chan struct{}
	unsubscribe func()

	state client.State
	local int
}

// New subscribes to counter. Call Close once the program has exited.
func New(ctx context.Context, counter Counter, options ...Option) Model {
	m := Model{
		ctx:     ctx,
		counter: counter,
		log:     zerolog.Nop(),
		title:   "Count from the API",
		changes: make(chan struct{}, 1),
		state:   counter.State(),
	}
	for _, option := range options {
		option(&m)
	}

	changes := m.changes
	m.unsubscribe = counter.Subscribe(func(client.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	return m
}

func (m Model) Close() {
	m.unsubscribe()
}

func (m Model) State() client.State {
	return m.state
}

func (m Model) Local() int {
	return m.local
}

// Init implements tea.Model. The first state message starts the listener.
func (m Model) Init() tea.Cmd {
	return m.current
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = client.State(msg)
		return m, m.listen

	case incrementedMsg:
		if msg.err != nil {
			m.log.Warn().Err(msg.err).Msg("increment failed")
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "l":
			m.local++
		case "i":
			if !m.state.Busy() {
				return m, m.increment
			}
		case "r":
			if !m.state.Busy() {
				return m, m.refresh
			}
		}
	}

	return m, nil
}

func (m Model) current() tea.Msg {
	return stateMsg(m.counter.State())
}

// listen waits for the next committed state.
func (m Model) listen() tea.Msg {
	select {
	case <-m.changes:
		return stateMsg(m.counter.State())
	case <-m.ctx.Done():
		return nil
	}
}

func (m Model) increment() tea.Msg {
	_, err := m.counter.IncrementCount(m.ctx)
	return incrementedMsg{err: err}
}

func (m Model) refresh() tea.Msg {
	m.counter.Refetch(m.ctx)
	return nil
}
