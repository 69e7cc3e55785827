package pipeline

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("OpenStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreUpsertAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.UpsertEpisode(ctx, "series-a", 1, "첫 만남", "hash1"); err != nil {
		t.Fatalf("UpsertEpisode failed: %v", err)
	}
	if err := store.UpsertEpisode(ctx, "series-a", 2, "", "hash2"); err != nil {
		t.Fatalf("UpsertEpisode failed: %v", err)
	}

	episodes, err := store.Episodes(ctx, "series-a")
	if err != nil {
		t.Fatalf("Episodes failed: %v", err)
	}
	if len(episodes) != 2 {
		t.Fatalf("Expected 2 episodes, got %d", len(episodes))
	}
	if episodes[0].Number != 1 || episodes[0].Title != "첫 만남" {
		t.Errorf("Unexpected first episode: %+v", episodes[0])
	}

	// Re-upsert updates in place.
	if err := store.UpsertEpisode(ctx, "series-a", 1, "새 제목", "hash1b"); err != nil {
		t.Fatalf("UpsertEpisode update failed: %v", err)
	}
	episodes, _ = store.Episodes(ctx, "series-a")
	if len(episodes) != 2 {
		t.Fatalf("Expected upsert not insert, got %d episodes", len(episodes))
	}
	if episodes[0].Title != "새 제목" || episodes[0].ContentHash != "hash1b" {
		t.Errorf("Upsert did not update: %+v", episodes[0])
	}
}

func TestStoreStageStatusDefaultsPending(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec, err := store.StageStatus(ctx, "series-a", 1, StageTranslate, "japanese")
	if err != nil {
		t.Fatalf("StageStatus failed: %v", err)
	}
	if rec.Status != StatusPending {
		t.Errorf("Expected pending for unrecorded stage, got %q", rec.Status)
	}
}

func TestStorePendingEpisodesResume(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := store.UpsertEpisode(ctx, "series-a", i, "", "hash"); err != nil {
			t.Fatal(err)
		}
	}

	// Episode 2 already translated to Japanese; 1 failed; 3 untouched.
	if err := store.MarkStage(ctx, "series-a", 2, StageTranslate, "japanese", StatusDone, ""); err != nil {
		t.Fatal(err)
	}
	if err := store.MarkStage(ctx, "series-a", 1, StageTranslate, "japanese", StatusFailed, "boom"); err != nil {
		t.Fatal(err)
	}

	pending, err := store.PendingEpisodes(ctx, "series-a", StageTranslate, "japanese")
	if err != nil {
		t.Fatalf("PendingEpisodes failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending episodes, got %d", len(pending))
	}
	if pending[0].Number != 1 || pending[1].Number != 3 {
		t.Errorf("Unexpected pending set: %d, %d", pending[0].Number, pending[1].Number)
	}

	// A different language is unaffected.
	pending, err = store.PendingEpisodes(ctx, "series-a", StageTranslate, "taiwanese")
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 3 {
		t.Errorf("Expected all 3 pending for taiwanese, got %d", len(pending))
	}
}

func TestStoreStageCounts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	store.MarkStage(ctx, "series-a", 1, StageQA, "japanese", StatusDone, "")
	store.MarkStage(ctx, "series-a", 2, StageQA, "japanese", StatusDone, "")
	store.MarkStage(ctx, "series-a", 3, StageQA, "japanese", StatusFailed, "2 errors")

	counts, err := store.StageCounts(ctx, "series-a", StageQA, "japanese")
	if err != nil {
		t.Fatalf("StageCounts failed: %v", err)
	}
	if counts[StatusDone] != 2 || counts[StatusFailed] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
}

func TestStoreRuns(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.BeginRun(ctx, "run-1", "series-a", StageSplit, ""); err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := store.FinishRun(ctx, "run-1", 10, 2); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	runs, err := store.Runs(ctx, "series-a", 5)
	if err != nil {
		t.Fatalf("Runs failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.ID != "run-1" || run.Succeeded != 10 || run.Failed != 2 {
		t.Errorf("Unexpected run record: %+v", run)
	}
	if run.FinishedAt == nil {
		t.Error("Expected FinishedAt to be set")
	}
}
