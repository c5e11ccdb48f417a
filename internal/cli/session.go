package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/grove/internal/application/usecase"
	"github.com/bnema/grove/internal/infrastructure/clipboard"
	"github.com/bnema/grove/internal/infrastructure/fsprovider"
	"github.com/bnema/grove/internal/infrastructure/metrics"
	"github.com/bnema/grove/internal/logging"
	"github.com/bnema/grove/pkg/explorer"
)

// SessionOptions selects what an explorer session runs alongside the
// controller. Zero values leave the extra off.
type SessionOptions struct {
	// Root overrides the configured root directory.
	Root   string
	Widget explorer.Widget
	// Watch refreshes loaded directories on filesystem changes.
	Watch bool
	// Persist remembers expanded directories and the selection.
	Persist bool
	// Metrics serves engine metrics on the configured address.
	Metrics bool
}

// Session is one explorer over a directory with its supporting services.
type Session struct {
	Provider   *fsprovider.Provider
	Controller *explorer.Controller
	// State is nil unless SessionOptions.Persist was set.
	State *usecase.ExpansionStateUseCase

	ctx     context.Context
	watcher *fsprovider.Watcher
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// OpenSession builds and starts an explorer session.
func (a *App) OpenSession(opts SessionOptions) (*Session, error) {
	cfg := a.Config.Explorer
	root := opts.Root
	if root == "" {
		root = cfg.Root
	}

	provOpts := fsprovider.Options{
		Root:       root,
		PageSize:   cfg.PageSize,
		ShowHidden: cfg.ShowHidden,
		EagerDepth: cfg.EagerDepth,
	}
	if clip := clipboard.New(); clip.Available() {
		provOpts.Clipboard = clip
	}
	provider, err := fsprovider.New(provOpts)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", root, err)
	}

	view := provider.Root().Path
	ctx := logging.WithView(a.ctx, view)
	runCtx, cancel := context.WithCancel(ctx)
	group, runCtx := errgroup.WithContext(runCtx)

	s := &Session{Provider: provider, ctx: ctx, cancel: cancel, group: group}
	bus := explorer.NewBus()
	hooks := []explorer.Hooks{a.traceHooks()}

	if opts.Watch {
		s.watcher, err = fsprovider.NewWatcher(ctx, provider, bus)
		if err != nil {
			// Without inotify the tree still works, it just goes stale.
			logging.FromContext(ctx).Warn().Err(err).Msg("filesystem watch disabled")
		} else {
			hooks = append(hooks, s.watcher.Hooks())
		}
	}

	if opts.Metrics {
		h, err := a.startMetrics(runCtx, group)
		if err != nil {
			cancel()
			return nil, errors.Join(err, s.closeExtras(ctx))
		}
		hooks = append(hooks, h)
	}

	if opts.Persist {
		s.State = usecase.NewExpansionStateUseCase(ctx, view, a.Expansions, a.Views)
		if err := s.State.Load(ctx); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("starting without remembered expansion state")
		}
		hooks = append(hooks, s.State.Hooks())
	}

	s.Controller, err = explorer.New(ctx, explorer.Config{
		Provider:     provider,
		Root:         provider.Root(),
		Workers:      cfg.Workers,
		FetchTimeout: cfg.FetchTimeout,
		Bus:          bus,
		Hooks:        explorer.ComposeHooks(hooks...),
		Widget:       opts.Widget,
	})
	if err != nil {
		cancel()
		return nil, errors.Join(err, group.Wait(), s.closeExtras(ctx))
	}
	if s.State != nil {
		s.State.Attach(s.Controller)
	}

	group.Go(func() error {
		defer logging.LogPanic(runCtx)
		return s.Controller.Run(runCtx)
	})
	if s.watcher != nil {
		group.Go(func() error { return s.watcher.Run(runCtx) })
	}

	a.Trace.Mark("controller_started")
	return s, nil
}

func (a *App) traceHooks() explorer.Hooks {
	return explorer.Hooks{
		OnReconciled: func(parent explorer.Node, _ explorer.ReconcileStats) {
			if parent.Parent() == nil {
				a.Trace.Finish("root_loaded")
			}
		},
	}
}

func (a *App) startMetrics(ctx context.Context, group *errgroup.Group) (explorer.Hooks, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	srv, err := metrics.Listen(a.Config.Metrics.ListenAddr, reg)
	if err != nil {
		return explorer.Hooks{}, err
	}
	group.Go(func() error { return srv.Run(ctx) })
	return collector.Hooks(), nil
}

// Ctx returns the session context, which carries the view in its logger.
func (s *Session) Ctx() context.Context { return s.ctx }

// Start expands the root, then brings back the remembered expansion and
// selection when the session persists state.
func (s *Session) Start() error {
	c := s.Controller
	if err := c.Expand(c.Root()); err != nil {
		return err
	}
	if s.State == nil {
		return nil
	}
	s.State.Restore(c.Root())
	return s.State.RestoreSelection(s.ctx, func(key string) (explorer.Value, error) {
		return s.Provider.Lookup(key)
	})
}

// Settle waits until no load is running and every posted change is applied.
func (s *Session) Settle(ctx context.Context) error {
	return s.Controller.Settle(ctx)
}

// SaveSelection remembers the node the user ended on.
func (s *Session) SaveSelection(n explorer.Node) error {
	if s.State == nil || n == nil || n.Placeholder() {
		return nil
	}
	return s.State.SaveSelection(s.ctx, n.Key())
}

// Close stops the controller and every service started with it.
func (s *Session) Close(ctx context.Context) error {
	errs := []error{s.Controller.Close()}
	s.cancel()
	errs = append(errs, s.group.Wait(), s.closeExtras(ctx))
	return errors.Join(errs...)
}

func (s *Session) closeExtras(ctx context.Context) error {
	var errs []error
	if s.watcher != nil {
		errs = append(errs, s.watcher.Close())
	}
	if s.State != nil {
		errs = append(errs, s.State.Close(ctx))
	}
	return errors.Join(errs...)
}
