// persistence/memory.go
package persistence

import (
	"sync"

	"github.com/wfunc/monopoly/models"
)

// Memory keeps records for the life of the process.
type Memory struct {
	records []models.GameRecord
	mutex   sync.RWMutex
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) SaveGameRecord(record *models.GameRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	rec := *record
	rec.Players = append([]models.PlayerResult(nil), record.Players...)
	m.records = append(m.records, rec)
	return nil
}

func (m *Memory) GetPlayerStats(name string) (*models.PlayerStats, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	stats := &models.PlayerStats{Name: name}
	for _, rec := range m.records {
		for _, p := range rec.Players {
			if p.Name != name {
				continue
			}
			stats.TotalGames++
			if p.Outcome == models.OutcomeWin {
				stats.Wins++
			}
			if rec.FinishedAt.After(stats.LastPlayed) {
				stats.LastPlayed = rec.FinishedAt
			}
		}
	}
	if stats.TotalGames == 0 {
		return nil, ErrRecordNotFound
	}
	stats.Losses = stats.TotalGames - stats.Wins
	return stats, nil
}

// Records returns a copy of everything saved so far.
func (m *Memory) Records() []models.GameRecord {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return append([]models.GameRecord(nil), m.records...)
}

func (m *Memory) Close() error {
	return nil
}
