package explorer

import "time"

// ReconcileStats counts what one reconciliation pass did to real children.
type ReconcileStats struct {
	Mode       Mode
	Kept       int
	Created    int
	Removed    int
	Collisions int
}

// Hooks observe engine lifecycle events. Every field is optional. Hooks run on
// the controller queue and must not block.
//
// Every OnLoadStart is matched by one OnLoadFinish. A result discarded because
// its node was disposed meanwhile finishes with ErrDisposed.
type Hooks struct {
	OnLoadStart  func(n Node, mode Mode)
	OnLoadFinish func(n Node, mode Mode, elapsed time.Duration, err error)
	OnReconciled func(parent Node, stats ReconcileStats)
	OnExpanded   func(n Node)
	OnCollapsed  func(n Node)
	OnDisposed   func(n Node)
}

// ComposeHooks returns hooks calling each of hs in order.
func ComposeHooks(hs ...Hooks) Hooks {
	return Hooks{
		OnLoadStart: func(n Node, mode Mode) {
			for _, h := range hs {
				h.loadStart(n, mode)
			}
		},
		OnLoadFinish: func(n Node, mode Mode, elapsed time.Duration, err error) {
			for _, h := range hs {
				h.loadFinish(n, mode, elapsed, err)
			}
		},
		OnReconciled: func(parent Node, stats ReconcileStats) {
			for _, h := range hs {
				h.reconciled(parent, stats)
			}
		},
		OnExpanded: func(n Node) {
			for _, h := range hs {
				h.expanded(n)
			}
		},
		OnCollapsed: func(n Node) {
			for _, h := range hs {
				h.collapsed(n)
			}
		},
		OnDisposed: func(n Node) {
			for _, h := range hs {
				h.disposed(n)
			}
		},
	}
}

func (h Hooks) loadStart(n Node, mode Mode) {
	if h.OnLoadStart != nil {
		h.OnLoadStart(n, mode)
	}
}

func (h Hooks) loadFinish(n Node, mode Mode, elapsed time.Duration, err error) {
	if h.OnLoadFinish != nil {
		h.OnLoadFinish(n, mode, elapsed, err)
	}
}

func (h Hooks) reconciled(parent Node, stats ReconcileStats) {
	if h.OnReconciled != nil {
		h.OnReconciled(parent, stats)
	}
}

func (h Hooks) expanded(n Node) {
	if h.OnExpanded != nil {
		h.OnExpanded(n)
	}
}

func (h Hooks) collapsed(n Node) {
	if h.OnCollapsed != nil {
		h.OnCollapsed(n)
	}
}

func (h Hooks) disposed(n Node) {
	if h.OnDisposed != nil {
		h.OnDisposed(n)
	}
}
