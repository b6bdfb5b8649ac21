// services/result_service.go
package services

import (
	"errors"
	"strings"
	"time"

	"github.com/wfunc/monopoly/game"
	"github.com/wfunc/monopoly/logger"
	"github.com/wfunc/monopoly/models"
	"github.com/wfunc/monopoly/persistence"
)

var ErrNoWinner = errors.New("game has no winner")

// ResultService records finished games and answers leaderboard queries.
type ResultService struct {
	db  persistence.Database
	now func() time.Time
}

func NewResultService(db persistence.Database) *ResultService {
	return &ResultService{db: db, now: time.Now}
}

// RecordGame stores the outcome of a game that has a winner. Players that
// left before the end are not part of the record.
func (s *ResultService) RecordGame(g *game.State) error {
	winner := g.WinnerPlayer()
	if winner == nil {
		return ErrNoWinner
	}

	record := &models.GameRecord{
		RoomID:     g.RoomID,
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		FinishedAt: s.now().UTC(),
		Players:    make([]models.PlayerResult, 0, len(g.Players)),
	}
	for _, p := range g.Players {
		outcome := models.OutcomeLose
		switch {
		case p.ID == winner.ID:
			outcome = models.OutcomeWin
		case p.Bankrupt:
			outcome = models.OutcomeBankrupt
		}
		record.Players = append(record.Players, models.PlayerResult{
			PlayerID:   p.ID,
			Name:       p.Name,
			Outcome:    outcome,
			Money:      p.Money,
			Properties: len(p.Properties),
		})
	}

	if err := s.db.SaveGameRecord(record); err != nil {
		return err
	}
	logger.Log.Infof("Recorded game %s, winner %s", record.RoomID, record.WinnerName)
	return nil
}

// PlayerStats 获取玩家统计; a name with no games yields zero stats.
func (s *ResultService) PlayerStats(name string) (*models.PlayerStats, error) {
	name = strings.TrimSpace(name)
	stats, err := s.db.GetPlayerStats(name)
	if errors.Is(err, persistence.ErrRecordNotFound) {
		return &models.PlayerStats{Name: name}, nil
	}
	return stats, err
}
