package store

import "time"

// UpsertMessage inserts or updates a message (idempotent on conversation_id + msg_id).
func (db *DB) UpsertMessage(m *Message) error {
	now := time.Now().UnixMilli()
	sender := m.Sender
	if sender == "" {
		sender = "peer"
	}
	_, err := db.Exec(`
		INSERT INTO messages (conversation_id, msg_id, sender, body, status, token, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id, msg_id) DO UPDATE SET
			body = excluded.body,
			status = excluded.status`,
		m.ConversationID, m.MsgID, sender, m.Body, m.Status, m.Token, m.Timestamp, now)
	return err
}

// InsertMessage stores m unless the conversation already has its msg_id,
// and reports whether a row was added.
func (db *DB) InsertMessage(m *Message) (bool, error) {
	sender := m.Sender
	if sender == "" {
		sender = "peer"
	}
	res, err := db.Exec(`
		INSERT INTO messages (conversation_id, msg_id, sender, body, status, token, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(conversation_id, msg_id) DO NOTHING`,
		m.ConversationID, m.MsgID, sender, m.Body, m.Status, m.Token, m.Timestamp, time.Now().UnixMilli())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListMessages returns the newest messages of a conversation before
// beforeTs, newest first.
func (db *DB) ListMessages(conversationID string, beforeTs int64, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeTs <= 0 {
		beforeTs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT id, conversation_id, msg_id, sender, body, status, token, timestamp
		FROM messages
		WHERE conversation_id = ? AND timestamp < ?
		ORDER BY timestamp DESC, msg_id DESC
		LIMIT ?`, conversationID, beforeTs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.MsgID, &m.Sender, &m.Body, &m.Status, &m.Token, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// SetMessageStatusByToken updates the status of the message created for a
// correlation token.
func (db *DB) SetMessageStatusByToken(token, status string) error {
	_, err := db.Exec(`UPDATE messages SET status = ? WHERE token = ?`, status, token)
	return err
}

// MessageCount returns the total number of stored messages.
func (db *DB) MessageCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&n)
	return n, err
}
