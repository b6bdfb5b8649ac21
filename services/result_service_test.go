package services

import (
	"errors"
	"testing"
	"time"

	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/models"
	"github.com/wfunc/monopoly/persistence"
)

// MockDatabase fails every write.
type MockDatabase struct {
	persistence.Memory
}

func (m *MockDatabase) SaveGameRecord(record *models.GameRecord) error {
	return errors.New("connection refused")
}

func finishedGame(t *testing.T, roomID string, names ...string) *game.State {
	t.Helper()
	g := game.NewState(roomID, "p0", names[0])
	for i, name := range names[1:] {
		if err := g.Join(string(rune('1'+i))+"-id", name); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}
	if err := g.Start("p0"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	for _, p := range g.Players[1:] {
		p.Bankrupt = true
	}
	g.Players[0].Properties = []int{1, 3}
	if w, err := g.EndTurn("p0"); err != nil || w == nil {
		t.Fatalf("Expected a winner, got %v (%v)", w, err)
	}
	return g
}

func TestResultService_RecordGame(t *testing.T) {
	db := persistence.NewMemory()
	svc := NewResultService(db)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return at }

	if err := svc.RecordGame(finishedGame(t, "ROOM01", "Alice", "Bob", "Carol")); err != nil {
		t.Fatalf("RecordGame failed: %v", err)
	}

	records := db.Records()
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.RoomID != "ROOM01" || rec.WinnerName != "Alice" || !rec.FinishedAt.Equal(at) {
		t.Errorf("Unexpected record %+v", rec)
	}
	if len(rec.Players) != 3 {
		t.Fatalf("Expected 3 player results, got %d", len(rec.Players))
	}
	if rec.Players[0].Outcome != models.OutcomeWin || rec.Players[0].Properties != 2 {
		t.Errorf("Unexpected winner result %+v", rec.Players[0])
	}
	if rec.Players[1].Outcome != models.OutcomeBankrupt {
		t.Errorf("Expected bankrupt outcome, got %s", rec.Players[1].Outcome)
	}
}

func TestResultService_RecordGameWithoutWinner(t *testing.T) {
	svc := NewResultService(persistence.NewMemory())
	g := game.NewState("ROOM01", "p0", "Alice")
	if err := svc.RecordGame(g); !errors.Is(err, ErrNoWinner) {
		t.Errorf("Expected ErrNoWinner, got %v", err)
	}
}

func TestResultService_RecordGameStoreError(t *testing.T) {
	svc := NewResultService(&MockDatabase{})
	if err := svc.RecordGame(finishedGame(t, "ROOM01", "Alice", "Bob")); err == nil {
		t.Error("Expected the store error to be returned")
	}
}

func TestResultService_PlayerStats(t *testing.T) {
	svc := NewResultService(persistence.NewMemory())
	svc.RecordGame(finishedGame(t, "ROOM01", "Alice", "Bob"))
	svc.RecordGame(finishedGame(t, "ROOM02", "Bob", "Alice"))
	svc.RecordGame(finishedGame(t, "ROOM03", "Alice", "Carol"))

	stats, err := svc.PlayerStats(" Alice ")
	if err != nil {
		t.Fatalf("PlayerStats failed: %v", err)
	}
	if stats.TotalGames != 3 || stats.Wins != 2 || stats.Losses != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}

	stats, err = svc.PlayerStats("Nobody")
	if err != nil {
		t.Fatalf("PlayerStats failed: %v", err)
	}
	if stats.Name != "Nobody" || stats.TotalGames != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
}
