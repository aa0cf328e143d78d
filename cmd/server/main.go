package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"sarsim/db/migrations"
	httpadapter "sarsim/internal/adapter/http"
	"sarsim/internal/adapter/mapsource"
	metricsinmem "sarsim/internal/adapter/metrics/inmemory"
	"sarsim/internal/adapter/render/ws"
	gormrepo "sarsim/internal/adapter/repo/gorm"
	"sarsim/internal/adapter/repo/memory"
	sqliterepo "sarsim/internal/adapter/repo/sqlite"
	"sarsim/internal/adapter/trace"
	"sarsim/internal/app/action"
	"sarsim/internal/app/episode"
	"sarsim/internal/app/observe"
	"sarsim/internal/app/ports"
	"sarsim/internal/app/replay"
	"sarsim/internal/app/status"
	"sarsim/internal/config"

	"github.com/cloudwego/hertz/pkg/app/server"
)

type repos struct {
	episodes ports.EpisodeRepository
	events   ports.EventRepository
	tx       ports.TxManager
}

func main() {
	var configPath, tracePath, indexPath string
	flag.StringVar(&configPath, "config", os.Getenv("SARSIM_CONFIG"), "yaml config file")
	flag.StringVar(&tracePath, "trace", "", "append step traces to this .jsonl.zst file")
	flag.StringVar(&indexPath, "index", "", "sqlite episode index path")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	cfg = cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	r := mustBuildRepos(cfg.DBDSN)
	sessions := memory.NewSessionStore(memory.NewStore())
	kpi := metricsinmem.NewRecorder()
	hub := ws.NewHub(32)
	out := mustBuildTrace(tracePath, indexPath)
	now := time.Now

	h := httpadapter.Handler{
		EpisodeUC: episode.UseCase{
			TxManager: r.tx,
			Episodes:  r.episodes,
			Events:    r.events,
			Sessions:  sessions,
			Maps:      mapsource.Source{},
			Publisher: hub,
			Trace:     out.sink,
			Metrics:   kpi,
			Base:      cfg,
			Now:       now,
		},
		ObserveUC: observe.UseCase{Sessions: sessions},
		ActionUC: action.UseCase{
			TxManager: r.tx,
			Episodes:  r.episodes,
			Events:    r.events,
			Sessions:  sessions,
			Publisher: hub,
			Trace:     out.sink,
			Metrics:   kpi,
			Now:       now,
		},
		StatusUC:    status.UseCase{Episodes: r.episodes, Sessions: sessions},
		ReplayUC:    replay.UseCase{Events: r.events},
		KPI:         kpi,
		CORSOrigins: cfg.CORSOrigins,
	}
	if out.index != nil {
		h.Index = out.index
	}

	mux := http.NewServeMux()
	mux.Handle("/observe/ws", hub.Handler())
	observeSrv := &http.Server{Addr: cfg.ObserveAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("render observers on %s/observe/ws", cfg.ObserveAddr)
		if err := observeSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("observe listener: %v", err)
		}
	}()

	s := server.Default(server.WithHostPorts(cfg.HTTPAddr))
	h.RegisterRoutes(s)
	s.OnShutdown = append(s.OnShutdown, func(ctx context.Context) {
		_ = observeSrv.Shutdown(ctx)
		if n := hub.Dropped(); n > 0 {
			log.Printf("observe hub dropped %d frames", n)
		}
		for _, c := range out.closers {
			if err := c.Close(); err != nil {
				log.Printf("close: %v", err)
			}
		}
	})

	log.Printf("sarsim server listening on %s (grid=%d agents=%d)", cfg.HTTPAddr, cfg.GridSize, cfg.NumAgents)
	s.Spin()
}

func mustBuildRepos(dsn string) repos {
	if dsn == "" {
		log.Println("SARSIM_DB_DSN not set, episodes are kept in memory")
		store := memory.NewStore()
		return repos{
			episodes: memory.NewEpisodeRepo(store),
			events:   memory.NewEventRepo(store),
			tx:       memory.NewTxManager(store),
		}
	}
	db, err := gormrepo.OpenPostgres(dsn, gormrepo.DefaultPoolOptions())
	if err != nil {
		log.Fatalf("open postgres: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := gormrepo.ApplyMigrations(ctx, db, migrations.FS); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	if versions, err := gormrepo.AppliedVersions(ctx, db); err == nil {
		log.Printf("postgres schema at %v", versions)
	}
	return repos{
		episodes: gormrepo.NewEpisodeRepo(db),
		events:   gormrepo.NewEventRepo(db),
		tx:       gormrepo.NewTxManager(db),
	}
}

type traceOutputs struct {
	sink    ports.TraceSink
	index   *sqliterepo.Index
	closers []io.Closer
}

func mustBuildTrace(tracePath, indexPath string) traceOutputs {
	var (
		out   traceOutputs
		sinks trace.Multi
	)
	if tracePath != "" {
		s, err := trace.NewSink(tracePath)
		if err != nil {
			log.Fatalf("open trace: %v", err)
		}
		sinks = append(sinks, s)
		out.closers = append(out.closers, s)
	}
	if indexPath != "" {
		idx, err := sqliterepo.Open(indexPath)
		if err != nil {
			log.Fatalf("open index: %v", err)
		}
		sinks = append(sinks, idx)
		out.index = idx
		out.closers = append(out.closers, idx)
	}
	if len(sinks) > 0 {
		out.sink = sinks
	}
	return out
}
