// File: cmd/runtime.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/freddy/api/schemas"
	"github.com/xkilldash9x/freddy/internal/agent"
	"github.com/xkilldash9x/freddy/internal/behavior"
	"github.com/xkilldash9x/freddy/internal/chat"
	"github.com/xkilldash9x/freddy/internal/commands"
	"github.com/xkilldash9x/freddy/internal/config"
	"github.com/xkilldash9x/freddy/internal/goals"
	"github.com/xkilldash9x/freddy/internal/sim"
	"github.com/xkilldash9x/freddy/internal/store"
	"github.com/xkilldash9x/freddy/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

// service is a long running component of the runtime.
type service struct {
	name string
	run  func(ctx context.Context) error
}

// runtime holds the components of a headless run against the simulated world.
type runtime struct {
	logger   *zap.Logger
	cfg      config.Interface
	world    *sim.World
	behavior *behavior.Behavior
	worker   *behavior.Worker
	client   schemas.LLMClient
	pool     *pgxpool.Pool
	services []service
}

type runtimeOptions struct {
	offline bool
}

// newRuntime wires every component named by cfg. Components whose address
// or path is empty are left out.
func newRuntime(ctx context.Context, cfg config.Interface, logger *zap.Logger, opts runtimeOptions) (*runtime, error) {
	rt := &runtime{logger: logger.Named("runtime"), cfg: cfg}
	agentCfg := cfg.Agent()

	// 1. Telemetry sinks.
	var sinks telemetry.Multi
	if tc := cfg.Telemetry(); tc.Enabled {
		if tc.Address != "" {
			tcp := telemetry.NewTCPSink(logger, tc.Address, tc.DialTimeout)
			sinks = append(sinks, tcp)
			rt.add("telemetry-tcp", tcp.Run)
		}
		if tc.WebSocketAddr != "" {
			hub := telemetry.NewHub(logger, rt.dispatchLine)
			sinks = append(sinks, hub)
			rt.add("telemetry-hub", hub.Run)
			mux := http.NewServeMux()
			mux.Handle("/ws", hub)
			srv := &http.Server{Addr: tc.WebSocketAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			rt.add("telemetry-http", func(ctx context.Context) error { return serveHTTP(ctx, srv) })
		}
	}

	// 2. LLM backends. The runtime keeps going without them.
	if !opts.offline {
		client, err := newLLMClient(ctx, cfg.LLM(), logger)
		if err != nil {
			rt.logger.Warn("LLM unavailable, planning falls back to built-in plans", zap.Error(err))
		} else {
			rt.client = client
		}
	}

	planner := goals.NewPlanner(logger, rt.client, sinks)
	var brain *agent.Brain
	if rt.client != nil {
		brain = agent.NewBrain(logger, rt.client, agentCfg.Name, sinks)
	}

	// 3. Goal journal.
	var onFinished func(*goals.Goal)
	if url := cfg.Database().URL; url != "" {
		journal, err := rt.openJournal(ctx, url)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.add("journal", journal.Run)
		onFinished = func(g *goals.Goal) { journal.Record(store.FromGoal(agentCfg.Name, g)) }
	}

	// 4. World and decision loop.
	rt.world = sim.New(logger, cfg.Simulation(), sim.WithTelemetry(agentCfg.Name, sinks))
	rt.worker = behavior.NewWorker(logger, agentCfg.WorkerQueueSize)
	rt.add("worker", rt.worker.Run)
	rt.behavior = behavior.New(logger, agentCfg, rt.world, rt.world, behavior.Collaborators{
		Planner:        planner,
		Brain:          brain,
		Worker:         rt.worker,
		Chat:           chat.NewSystem(logger, rt.client, agentCfg.Name),
		Sink:           sinks,
		OnGoalFinished: onFinished,
	})
	rt.behavior.SetContext(ctx)

	// 5. Command channels.
	cc := cfg.Commands()
	if cc.ListenAddr != "" {
		srv := commands.NewServer(logger, cc.ListenAddr, cc.MaxConnections, rt.behavior)
		rt.add("commands-tcp", srv.Run)
	}
	if cc.DirectivesFile != "" {
		watcher, err := commands.NewFileWatcher(logger, cc.DirectivesFile, rt.behavior)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("failed to create directives watcher: %w", err)
		}
		rt.add("commands-file", watcher.Run)
	}

	return rt, nil
}

func (rt *runtime) add(name string, run func(ctx context.Context) error) {
	rt.services = append(rt.services, service{name: name, run: run})
}

func (rt *runtime) openJournal(ctx context.Context, url string) (*store.Journal, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	rt.pool = pool

	st, err := store.New(ctx, pool, rt.logger)
	if err != nil {
		return nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return store.NewJournal(rt.logger, st, 0), nil
}

// dispatchLine handles a command line sent by a dashboard.
func (rt *runtime) dispatchLine(line string) {
	if rt.behavior == nil {
		return
	}
	cmd, err := commands.Parse(line)
	if err != nil {
		rt.logger.Debug("Ignoring dashboard line", zap.String("line", line), zap.Error(err))
		return
	}
	if cmd.Kind == commands.KindStatus {
		return
	}
	if !rt.behavior.Dispatch(cmd) {
		rt.logger.Warn("Command queue full, dropping dashboard command", zap.Stringer("command", cmd))
	}
}

// run ticks the behavior at the configured rate until ticks ticks have
// passed, or until ctx is done when ticks is zero, with every service
// running alongside. Services are stopped when the tick loop ends.
func (rt *runtime) run(ctx context.Context, ticks int) error {
	g, gctx := errgroup.WithContext(ctx)
	svcCtx, stopServices := context.WithCancel(gctx)
	defer stopServices()

	for _, s := range rt.services {
		g.Go(func() error {
			if err := s.run(svcCtx); err != nil {
				return fmt.Errorf("%s: %w", s.name, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer stopServices()
		return rt.tickLoop(svcCtx, ticks)
	})

	err := g.Wait()
	rt.logger.Info("Runtime stopped",
		zap.String("status", rt.behavior.Status()),
		zap.Any("inventory", rt.world.Inventory()))
	return err
}

func (rt *runtime) tickLoop(ctx context.Context, ticks int) error {
	rate := rt.cfg.Agent().TickRate
	if rate <= 0 {
		rate = 20
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	for n := 0; ticks <= 0 || n < ticks; n++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rt.behavior.Tick()
		}
	}
	return nil
}

// close releases the LLM client and the database pool.
func (rt *runtime) close() {
	if rt.client != nil {
		if err := rt.client.Close(); err != nil {
			rt.logger.Warn("Failed to close LLM client", zap.Error(err))
		}
	}
	if rt.pool != nil {
		rt.pool.Close()
	}
}

func serveHTTP(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}
