// internal/database/actions.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/bluff/internal/cache"
	"github.com/jason-s-yu/bluff/internal/game"
)

// ActionStore persists game action records.
type ActionStore struct {
	pool *pgxpool.Pool
}

func NewActionStore(pool *pgxpool.Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

// SaveActions writes a batch of records in one transaction. Replayed records are ignored.
func (s *ActionStore) SaveActions(ctx context.Context, records []cache.GameActionRecord) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertGameActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s/%d: %w", rec.GameID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

// insertGameActionTx upserts the game row, inserts the action and, for GAME_OVER, finalizes the
// game and records its result.
func insertGameActionTx(ctx context.Context, tx pgx.Tx, rec cache.GameActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, lobby_id, status, start_time)
		VALUES ($1, $2, 'in_progress', $3)
		ON CONFLICT (id) DO NOTHING
	`
	at := time.UnixMilli(rec.Timestamp)
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID, rec.LobbyID, at); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	var actor *uuid.UUID
	if rec.ActorID != uuid.Nil {
		actor = &rec.ActorID
	}
	actionInsertQ := `
		INSERT INTO game_actions (game_id, action_index, actor_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	if _, err := tx.Exec(ctx, actionInsertQ, rec.GameID, rec.ActionIndex, actor, rec.ActionType, payload, at); err != nil {
		return err
	}

	if rec.ActionType != string(game.EventGameOver) {
		return nil
	}
	finalizeQ := `
		UPDATE games SET status = 'completed', end_time = $2
		WHERE id = $1 AND status = 'in_progress'
	`
	if _, err := tx.Exec(ctx, finalizeQ, rec.GameID, at); err != nil {
		return err
	}
	resultQ := `
		INSERT INTO game_results (game_id, winner_id, ended_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (game_id) DO UPDATE SET winner_id = $2, ended_at = $3
	`
	_, err = tx.Exec(ctx, resultQ, rec.GameID, actor, at)
	return err
}
