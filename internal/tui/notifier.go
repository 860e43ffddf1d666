package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/domain"
)

// Notifier hands session snapshots to the program. Only the newest pending
// snapshot is kept.
type Notifier struct {
	ch   chan domain.Snapshot
	done chan struct{}
	once sync.Once
}

// NewNotifier returns a Notifier whose Send is used as the session OnChange.
func NewNotifier() *Notifier {
	return &Notifier{
		ch:   make(chan domain.Snapshot, 1),
		done: make(chan struct{}),
	}
}

// Send queues snap, replacing a snapshot the program has not read yet.
func (n *Notifier) Send(snap domain.Snapshot) {
	for {
		select {
		case <-n.done:
			return
		case n.ch <- snap:
			return
		default:
		}

		select {
		case <-n.ch:
		default:
		}
	}
}

// Close releases a pending wait.
func (n *Notifier) Close() {
	n.once.Do(func() { close(n.done) })
}

type snapshotMsg domain.Snapshot

func (n *Notifier) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-n.ch:
			return snapshotMsg(snap)
		case <-n.done:
			return nil
		}
	}
}
