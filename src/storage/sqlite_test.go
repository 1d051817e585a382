package storage

import (
	"path/filepath"
	"testing"
	"time"

	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()
	db := NewSQLiteDatabase(filepath.Join(t.TempDir(), "test.db"), logger.NewLogger("error", ""))
	if err := db.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndReadSignals(t *testing.T) {
	db := newTestDB(t)

	signals := []models.MSignal{
		{Token: "2885", Symbol: "RELIANCE-EQ", Bias: models.BiasBullish, Score: 200, Price: 2505.0, At: time.Now()},
		{Token: "11536", Symbol: "TCS-EQ", Bias: models.BiasBearish, Score: 140, Price: 4080.5, At: time.Now()},
	}
	if err := db.SaveSignals(signals); err != nil {
		t.Fatalf("SaveSignals: %v", err)
	}

	got, err := db.RecentSignals(10)
	if err != nil {
		t.Fatalf("RecentSignals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rows = %d, want 2", len(got))
	}
	// Newest first.
	if got[0].Token != "11536" || got[0].Bias != models.BiasBearish {
		t.Errorf("first row = %+v", got[0])
	}
	if got[1].Score != 200 {
		t.Errorf("second row score = %d, want 200", got[1].Score)
	}
}

func TestSaveSignalsEmptyIsNoop(t *testing.T) {
	db := newTestDB(t)

	if err := db.SaveSignals(nil); err != nil {
		t.Fatalf("SaveSignals(nil): %v", err)
	}
	got, err := db.RecentSignals(10)
	if err != nil {
		t.Fatalf("RecentSignals: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("rows = %d, want 0", len(got))
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	db := newTestDB(t)

	// Second run must not fail on the existing schema.
	if err := db.Initialize(); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
}

func TestCleanupKeepsRecentRows(t *testing.T) {
	db := newTestDB(t)

	if err := db.SaveSignals([]models.MSignal{
		{Token: "2885", Symbol: "RELIANCE-EQ", Bias: models.BiasBullish, Score: 180, Price: 2500, At: time.Now()},
	}); err != nil {
		t.Fatalf("SaveSignals: %v", err)
	}

	if err := db.CleanupOldData(30); err != nil {
		t.Fatalf("CleanupOldData: %v", err)
	}
	got, err := db.RecentSignals(10)
	if err != nil {
		t.Fatalf("RecentSignals: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("rows = %d, want 1 (fresh row survives retention)", len(got))
	}
}
