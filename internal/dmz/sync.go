package dmz

import (
	"context"
	"fmt"
	"sync"

	"registration-sync-go/internal/models"

	"go.uber.org/zap"
)

// SyncFormPlayers fans the roster of one form out to the allow-list in
// parallel. Every player is attempted regardless of other players' results;
// the call settles the whole batch and reports a summary error at most.
// Entries missing identity fields are skipped with a warning.
func (c *Client) SyncFormPlayers(ctx context.Context, form *models.Form, university string) error {
	players := form.Fields.PlayerFields
	if len(players) == 0 {
		zap.L().Debug("No players to sync", zap.String("form_id", form.Id))
		return nil
	}

	zap.L().Info("Syncing form players to allow-list",
		zap.String("form_id", form.Id),
		zap.String("sport", form.Title),
		zap.Int("players", len(players)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var failed int

	for i, player := range players {
		if player.Email == "" || player.Name == "" || player.Phone == "" {
			zap.L().Warn("Skipping player with missing identity fields",
				zap.String("form_id", form.Id),
				zap.String("sport", form.Title),
				zap.Int("index", i+1))
			continue
		}

		wg.Add(1)
		go func(p models.PlayerField) {
			defer wg.Done()

			err := c.Upsert(ctx, models.AllowListIdentity{
				Email:      p.Email,
				Name:       p.Name,
				University: university,
				Phone:      p.Phone,
			})
			if err != nil {
				zap.L().Error("Failed to sync player to allow-list",
					zap.String("form_id", form.Id),
					zap.String("sport", form.Title),
					zap.String("player_email", p.Email),
					zap.Error(err))
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(player)
	}

	wg.Wait()

	if failed > 0 {
		return fmt.Errorf("%d of %d players failed to sync to allow-list", failed, len(players))
	}

	zap.L().Info("Finished syncing form players", zap.String("form_id", form.Id), zap.Int("players", len(players)))
	return nil
}
