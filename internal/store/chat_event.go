package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

var chatColumns = []string{
	colID, colSequence, colTimestamp, colSessionID, "tab", "message_id", "kind",
	"author", "status", "attempts", "content", "error", "failure", "attachment_kind",
}

func (r *eventRepo) AppendChatEvent(ctx context.Context, d ChatEventData) error {
	return r.insert(ctx, tableChatEvents, d.Timestamp,
		chatColumns[3:],
		[]any{d.SessionID, d.Tab, d.MessageID, d.Kind, d.Author, d.Status,
			d.Attempts, d.Content, d.Error, d.Failure, d.AttachmentKind},
	)
}

func (r *eventRepo) QueryChatEvents(ctx context.Context, opts QueryOpts) ([]ChatEventRecord, error) {
	sel := sqlite.Select(chatColumns...).
		From(entsql.Table(tableChatEvents)).
		OrderBy(colSequence)
	q, args := filter(sel, opts).Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query chat events: %w", err)
	}
	defer rows.Close()

	var out []ChatEventRecord
	for rows.Next() {
		var (
			rec ChatEventRecord
			ts  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Sequence, &ts, &rec.SessionID, &rec.Tab,
			&rec.MessageID, &rec.Kind, &rec.Author, &rec.Status, &rec.Attempts,
			&rec.Content, &rec.Error, &rec.Failure, &rec.AttachmentKind); err != nil {
			return nil, fmt.Errorf("scan chat event: %w", err)
		}
		rec.Timestamp = fromMillis(ts)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *eventRepo) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	sel := sqlite.Select(
		colSessionID,
		entsql.As(entsql.Min(colTimestamp), "started"),
		entsql.As(entsql.Max(colTimestamp), "last_event"),
		"SUM(kind = 'appended' AND author = 'user')",
		"SUM(kind = 'failed')",
		"SUM(kind = 'terminal')",
	).
		From(entsql.Table(tableChatEvents)).
		GroupBy(colSessionID).
		OrderBy(entsql.Desc("last_event"))
	if limit > 0 {
		sel.Limit(limit)
	}
	q, args := sel.Query()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var (
			s             SessionSummary
			started, last int64
		)
		if err := rows.Scan(&s.SessionID, &started, &last, &s.Messages, &s.Failures, &s.Terminal); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		s.Started, s.LastEvent = fromMillis(started), fromMillis(last)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Transcript replays a session's events into the last known state of
// each message, in the order the messages first appeared.
func (r *eventRepo) Transcript(ctx context.Context, sessionID string) ([]TranscriptEntry, error) {
	events, err := r.QueryChatEvents(ctx, QueryOpts{SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	var (
		out   []TranscriptEntry
		index = make(map[string]int)
	)
	for _, ev := range events {
		i, seen := index[ev.MessageID]
		if !seen {
			index[ev.MessageID] = len(out)
			out = append(out, TranscriptEntry{
				Tab:            ev.Tab,
				MessageID:      ev.MessageID,
				Author:         ev.Author,
				Content:        ev.Content,
				AttachmentKind: ev.AttachmentKind,
				Timestamp:      ev.Timestamp,
			})
			i = len(out) - 1
		}
		e := &out[i]
		e.Status = ev.Status
		e.Attempts = ev.Attempts
		e.Error = ev.Error
	}
	return out, nil
}
