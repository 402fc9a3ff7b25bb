package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/fx"

	"duetrack/internal/infrastructure/persistence/schema"
	"duetrack/internal/usecase/tracker"
)

func TestModuleWiresTrackerService(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := "database:\n  dsn: " + filepath.Join(dir, "data", "duetrack.sqlite") + "\ntracker:\n  lookahead_weeks: 2\n  default_policy: completion_date\n"
	if err := os.WriteFile(configFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	ctx := context.Background()
	var app *App
	var svc *tracker.Service
	fxApp := fx.New(
		Module,
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		fx.Provide(
			fx.Annotate(
				func() string { return configFile },
				fx.ResultTags(`name:"configFile"`),
			),
		),
		fx.Populate(&app, &svc),
	)

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := fxApp.Start(startCtx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() {
		_ = fxApp.Stop(context.Background())
	})

	if err := app.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() error = %v", err)
	}
	if err := app.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() second run error = %v", err)
	}
	version, err := app.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion() error = %v", err)
	}
	if version != schema.Version {
		t.Fatalf("SchemaVersion() = %q, want %q", version, schema.Version)
	}

	opts := svc.Options()
	if opts.LookaheadWeeks != 2 || opts.DefaultPolicy != "completion_date" || opts.DefaultIntervalWeeks != 52 {
		t.Fatalf("Options() = %+v", opts)
	}

	client, err := svc.CreateClient(ctx, tracker.CreateClientInput{Name: "Acme"})
	if err != nil {
		t.Fatalf("CreateClient() error = %v", err)
	}
	if client.ID == "" {
		t.Fatalf("CreateClient() returned empty id")
	}

	site, err := svc.CreateSite(ctx, tracker.CreateSiteInput{ClientID: client.ID, Name: "Plant A", Timezone: "Europe/Berlin"})
	if err != nil {
		t.Fatalf("CreateSite() error = %v", err)
	}
	eq, err := svc.CreateEquipment(ctx, tracker.CreateEquipmentInput{
		ClientID:      client.ID,
		SiteID:        site.ID,
		Name:          "Boiler",
		AnchorDate:    civil.Date{Year: 2024, Month: time.January, Day: 1},
		DueDate:       civil.Date{Year: 2024, Month: time.January, Day: 29},
		IntervalWeeks: 4,
	})
	if err != nil {
		t.Fatalf("CreateEquipment() error = %v", err)
	}

	result, err := svc.CompleteEquipment(ctx, tracker.CompleteInput{EquipmentID: eq.ID, Policy: "due_date"})
	if err != nil {
		t.Fatalf("CompleteEquipment() error = %v", err)
	}
	if result.Equipment.DueDate == nil || *result.Equipment.DueDate != "2024-02-26" {
		t.Fatalf("CompleteEquipment() due = %v, want 2024-02-26", result.Equipment.DueDate)
	}

	history, err := svc.ListCompletions(ctx, eq.ID, 0)
	if err != nil {
		t.Fatalf("ListCompletions() error = %v", err)
	}
	if len(history) != 1 || history[0].NextDueDate != "2024-02-26" {
		t.Fatalf("ListCompletions() = %+v, want one completion advancing to 2024-02-26", history)
	}
}
