package main

import "sync"

type H map[string]interface{}

// baseNotifier lets the owner of a session subscribe to its teardown.
type baseNotifier struct {
	mu       sync.Mutex
	closeFns []func()
}

func (n *baseNotifier) OnClose(fn func()) {
	n.mu.Lock()
	n.closeFns = append(n.closeFns, fn)
	n.mu.Unlock()
}

func (n *baseNotifier) notifyClosed() {
	n.mu.Lock()
	fns := n.closeFns
	n.closeFns = nil
	n.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
