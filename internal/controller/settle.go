package controller

import tea "github.com/charmbracelet/bubbletea"

// Settle runs cmd and everything it leads to, outside a Bubble Tea program.
// Commands run on their own goroutines; their messages are applied through
// Update on the calling goroutine only. It returns when nothing is in flight.
func (c *Controller) Settle(cmd tea.Cmd) {
	msgs := make(chan tea.Msg)
	inflight := 0
	launch := func(cmd tea.Cmd) {
		if cmd == nil {
			return
		}
		inflight++
		go func() { msgs <- cmd() }()
	}

	launch(cmd)
	for inflight > 0 {
		msg := <-msgs
		inflight--
		switch msg := msg.(type) {
		case nil:
		case tea.BatchMsg:
			for _, sub := range msg {
				launch(sub)
			}
		default:
			launch(c.Update(msg))
		}
	}
}
