package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"rosterkit/adapters/file"
	"rosterkit/analytics"
	"rosterkit/api/httpapi"
	"rosterkit/core"
	"rosterkit/engine"
	"rosterkit/kit"
	"rosterkit/realtime"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	path := flag.String("file", "students.txt", "roster file")
	flag.Parse()

	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	ctx := context.Background()
	store, err := file.New(*path)
	if err != nil {
		slog.Error("opening roster file", "error", err)
		os.Exit(1)
	}
	hub := realtime.NewHub()
	activity := analytics.NewActivity()
	logEvents := analytics.HookFunc(func(e core.Event) {
		slog.Info("event", "type", e.Type, "id", e.RecordID, "count", e.Count)
	})

	svc, err := kit.New(
		kit.WithStorage(store),
		kit.WithRealtime(hub),
		kit.WithHooks(activity, logEvents),
	)
	if err != nil {
		slog.Error("building roster", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	status, err := svc.Load(ctx)
	if err != nil {
		slog.Error("loading roster", "file", *path, "error", err)
		os.Exit(1)
	}
	if svc.Count(ctx) == 0 {
		if err := svc.Seed(ctx, kit.SampleRecords()); err != nil {
			slog.Error("seeding roster", "error", err)
			os.Exit(1)
		}
	}
	if err := svc.Sort(ctx, engine.SortByScore); err != nil {
		slog.Error("sorting roster", "error", err)
	}
	sum := svc.Summary(ctx)
	slog.Info("roster ready", "file", *path, "load", status.String(), "count", sum.Count, "average", sum.Average)
	for _, r := range svc.Records(ctx) {
		slog.Info("record", "id", r.ID(), "name", r.Name(), "score", r.Score(), "class", analytics.Classify(r.Score()))
	}

	srv := &http.Server{
		Addr:              *addr,
		Handler:           httpapi.NewMux(svc, hub, httpapi.Options{AllowCORSOrigin: "*", Activity: activity}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("starting demo server", "address", *addr)
	if err := srv.ListenAndServe(); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}
