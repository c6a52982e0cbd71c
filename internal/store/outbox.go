package store

import "time"

// QueueOutbox adds a message to the send outbox under its correlation token.
func (db *DB) QueueOutbox(token, conversationID, body string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO outbox (token, conversation_id, body, status, created_at, updated_at)
		VALUES (?, ?, ?, 'queued', ?, ?)`,
		token, conversationID, body, now, now)
	return err
}

// MarkOutboxSent records the message id assigned on a successful send.
func (db *DB) MarkOutboxSent(token, msgID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'sent', msg_id = ?, updated_at = ? WHERE token = ?`, msgID, now, token)
	return err
}

// MarkOutboxStatus advances an outbox entry to delivered or read.
func (db *DB) MarkOutboxStatus(token, status string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = ?, updated_at = ? WHERE token = ?`, status, now, token)
	return err
}

// MarkOutboxFailed updates an outbox entry to 'failed' with an error message.
func (db *DB) MarkOutboxFailed(token, errMsg string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE token = ?`, errMsg, now, token)
	return err
}

// ActiveOutbox returns outbox entries that have not reached read or failed,
// oldest first.
func (db *DB) ActiveOutbox() ([]OutboxEntry, error) {
	rows, err := db.Query(`
		SELECT id, token, conversation_id, body, status, error_message, msg_id
		FROM outbox WHERE status IN ('queued', 'sent', 'delivered') ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.Token, &e.ConversationID, &e.Body, &e.Status, &e.ErrorMessage, &e.MsgID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PendingOutboxCount returns how many sends are still in flight.
func (db *DB) PendingOutboxCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM outbox WHERE status IN ('queued', 'sent', 'delivered')`).Scan(&n)
	return n, err
}
