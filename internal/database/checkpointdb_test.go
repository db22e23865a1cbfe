package database

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/qcrawl/internal/feature"
	"github.com/nao1215/qcrawl/internal/graph"
	"github.com/nao1215/qcrawl/internal/model"
	"github.com/nao1215/qcrawl/internal/qlearn"
)

// setupTestDB creates a temporary checkpoint database for testing.
func setupTestDB(t *testing.T) *CheckpointDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testRecord builds a checkpoint record for tests.
func testRecord(t *testing.T, step int) *CheckpointRecord {
	t.Helper()

	return &CheckpointRecord{
		Step:  step,
		RunID: "11111111-2222-3333-4444-555555555555",
		QState: &qlearn.Snapshot{
			Dim:           8,
			Step:          step,
			Gamma:         0.4,
			OnlineIndices: []int{0, 3},
			OnlineValues:  []float64{0.5, -0.25},
		},
		LinkParams:  feature.Params{HashBits: 18, UseSameDomain: true},
		PageParams:  feature.Params{HashBits: 18},
		Hyperparams: json.RawMessage(`{"eps":0.2,"gamma":0.4}`),
	}
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false requires existing database", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false, EnableWAL: true}
		if _, err := Open(filepath.Join(t.TempDir(), "missing"), opts); err == nil {
			t.Error("expected error when database does not exist")
		}
	})
}

// TestCheckpointRoundTrip tests checkpoint persistence.
func TestCheckpointRoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("save and load by step", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.SaveCheckpoint(ctx, testRecord(t, 100)); err != nil {
			t.Fatalf("failed to save checkpoint: %v", err)
		}

		got, err := db.GetCheckpoint(ctx, 100)
		if err != nil {
			t.Fatalf("failed to get checkpoint: %v", err)
		}
		if got == nil {
			t.Fatal("checkpoint not found")
		}
		if got.Step != 100 {
			t.Errorf("Step = %d, want 100", got.Step)
		}
		if got.QState == nil || got.QState.Dim != 8 {
			t.Errorf("QState = %+v, want Dim 8", got.QState)
		}
		if len(got.QState.OnlineIndices) != 2 || got.QState.OnlineValues[1] != -0.25 {
			t.Errorf("online weights not preserved: %+v", got.QState)
		}
		if !got.LinkParams.UseSameDomain {
			t.Error("LinkParams.UseSameDomain not preserved")
		}
		if string(got.Hyperparams) != `{"eps":0.2,"gamma":0.4}` {
			t.Errorf("Hyperparams = %s", got.Hyperparams)
		}
	})

	t.Run("missing step returns nil without error", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		got, err := db.GetCheckpoint(context.Background(), 42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Error("expected nil for missing checkpoint")
		}
	})

	t.Run("same step overwrites", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		first := testRecord(t, 100)
		if err := db.SaveCheckpoint(ctx, first); err != nil {
			t.Fatalf("failed to save checkpoint: %v", err)
		}

		second := testRecord(t, 100)
		second.Hyperparams = json.RawMessage(`{"eps":0.5}`)
		if err := db.SaveCheckpoint(ctx, second); err != nil {
			t.Fatalf("failed to overwrite checkpoint: %v", err)
		}

		got, err := db.GetCheckpoint(ctx, 100)
		if err != nil {
			t.Fatalf("failed to get checkpoint: %v", err)
		}
		if string(got.Hyperparams) != `{"eps":0.5}` {
			t.Errorf("Hyperparams = %s, want overwritten value", got.Hyperparams)
		}

		metas, err := db.ListCheckpoints(ctx)
		if err != nil {
			t.Fatalf("failed to list checkpoints: %v", err)
		}
		if len(metas) != 1 {
			t.Errorf("len(metas) = %d, want 1", len(metas))
		}
	})

	t.Run("latest checkpoint wins by step", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for _, step := range []int{100, 300, 200} {
			if err := db.SaveCheckpoint(ctx, testRecord(t, step)); err != nil {
				t.Fatalf("failed to save checkpoint: %v", err)
			}
		}

		got, err := db.LatestCheckpoint(ctx)
		if err != nil {
			t.Fatalf("failed to get latest checkpoint: %v", err)
		}
		if got == nil || got.Step != 300 {
			t.Errorf("latest step = %v, want 300", got)
		}

		metas, err := db.ListCheckpoints(ctx)
		if err != nil {
			t.Fatalf("failed to list checkpoints: %v", err)
		}
		if len(metas) != 3 || metas[0].Step != 100 || metas[2].Step != 300 {
			t.Errorf("metas = %+v, want ascending steps [100 200 300]", metas)
		}
	})

	t.Run("empty database has no latest checkpoint", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		got, err := db.LatestCheckpoint(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Error("expected nil for empty database")
		}
	})
}

// TestGraphRoundTrip tests crawl-graph snapshot persistence.
func TestGraphRoundTrip(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	nodes := []graph.Node{
		{ID: 1, URL: "http://example.com/", Domain: "example.com", Fetched: true, Reward: 2.0, Step: 1},
		{ID: 2, URL: "http://example.com/a", Domain: "example.com"},
	}
	edges := []graph.Edge{{From: 1, To: 2}}

	if err := db.SaveGraph(ctx, 100, nodes, edges); err != nil {
		t.Fatalf("failed to save graph: %v", err)
	}

	gotNodes, gotEdges, err := db.GetGraph(ctx, 100)
	if err != nil {
		t.Fatalf("failed to get graph: %v", err)
	}
	if len(gotNodes) != 2 {
		t.Fatalf("len(nodes) = %d, want 2", len(gotNodes))
	}
	if !gotNodes[0].Fetched || gotNodes[0].Reward != 2.0 {
		t.Errorf("node 1 = %+v, want fetched with reward 2.0", gotNodes[0])
	}
	if gotNodes[1].Fetched {
		t.Errorf("node 2 should not be fetched")
	}
	if len(gotEdges) != 1 || gotEdges[0].From != 1 || gotEdges[0].To != 2 {
		t.Errorf("edges = %+v, want [{1 2}]", gotEdges)
	}

	// A later snapshot for the same step replaces the earlier one.
	if err := db.SaveGraph(ctx, 100, nodes[:1], nil); err != nil {
		t.Fatalf("failed to overwrite graph: %v", err)
	}
	gotNodes, gotEdges, err = db.GetGraph(ctx, 100)
	if err != nil {
		t.Fatalf("failed to get graph: %v", err)
	}
	if len(gotNodes) != 1 || len(gotEdges) != 0 {
		t.Errorf("after overwrite: %d nodes, %d edges, want 1 and 0", len(gotNodes), len(gotEdges))
	}
}

// TestSummaryRoundTrip tests run summary persistence.
func TestSummaryRoundTrip(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	summary := &model.CrawlSummary{
		RunID:       "11111111-2222-3333-4444-555555555555",
		Steps:       42,
		TotalReward: 17.5,
		Enqueued:    100,
		Processed:   43,
		TopPages: []model.PageOutcome{
			{URL: "http://example.com/best", Domain: "example.com", Reward: 3.0, Step: 12},
		},
	}

	if err := db.SaveSummary(ctx, summary); err != nil {
		t.Fatalf("failed to save summary: %v", err)
	}

	got, err := db.LatestSummary(ctx)
	if err != nil {
		t.Fatalf("failed to get summary: %v", err)
	}
	if got == nil {
		t.Fatal("summary not found")
	}
	if got.Steps != 42 || got.TotalReward != 17.5 {
		t.Errorf("summary = %+v", got)
	}
	if len(got.TopPages) != 1 || got.TopPages[0].URL != "http://example.com/best" {
		t.Errorf("TopPages = %+v", got.TopPages)
	}
}
