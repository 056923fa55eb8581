package persist

import (
	"context"
	"fmt"
)

// UnitEvent is one row of the unit event log.
type UnitEvent struct {
	Tick     uint64
	Kind     string // "destroyed", "notable"
	UnitID   uint64
	UnitKind string
	Team     uint8
	X, Y     float64
}

// EventLogRepo appends unit events.
type EventLogRepo struct {
	db       *DB
	serverID int
}

func NewEventLogRepo(db *DB, serverID int) *EventLogRepo {
	return &EventLogRepo{db: db, serverID: serverID}
}

// Append writes a batch of events in a single transaction. Either every
// event of the batch is stored or none is.
func (r *EventLogRepo) Append(ctx context.Context, events []UnitEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("event log begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range events {
		if _, err := tx.Exec(ctx,
			`INSERT INTO unit_events (server_id, tick, kind, unit_id, unit_kind, team, x, y)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.serverID, int64(e.Tick), e.Kind, int64(e.UnitID), e.UnitKind, int16(e.Team), e.X, e.Y,
		); err != nil {
			return fmt.Errorf("event log insert: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Since returns the events logged at or after tick, oldest first.
func (r *EventLogRepo) Since(ctx context.Context, tick uint64) ([]UnitEvent, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT tick, kind, unit_id, unit_kind, team, x, y FROM unit_events
		 WHERE server_id = $1 AND tick >= $2 ORDER BY tick, id`,
		r.serverID, int64(tick),
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []UnitEvent
	for rows.Next() {
		var (
			e     UnitEvent
			t, id int64
			team  int16
		)
		if err := rows.Scan(&t, &e.Kind, &id, &e.UnitKind, &team, &e.X, &e.Y); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Tick, e.UnitID, e.Team = uint64(t), uint64(id), uint8(team)
		out = append(out, e)
	}
	return out, rows.Err()
}
