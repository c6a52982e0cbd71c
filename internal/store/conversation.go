package store

import (
	"database/sql"
	"time"
)

// UpsertConversation inserts or updates a conversation record. An existing
// unread count is kept.
func (db *DB) UpsertConversation(c *Conversation) error {
	now := time.Now().UnixMilli()
	presence := c.PeerPresence
	if presence == "" {
		presence = "offline"
	}
	_, err := db.Exec(`
		INSERT INTO conversations (id, peer_name, peer_presence, project_label, unread_count, last_message_at, last_message_preview, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			peer_name = excluded.peer_name,
			peer_presence = excluded.peer_presence,
			project_label = excluded.project_label,
			last_message_at = MAX(conversations.last_message_at, excluded.last_message_at),
			last_message_preview = CASE
				WHEN excluded.last_message_at > conversations.last_message_at THEN excluded.last_message_preview
				ELSE conversations.last_message_preview END,
			updated_at = excluded.updated_at`,
		c.ID, c.PeerName, presence, c.ProjectLabel, c.UnreadCount, c.LastMessageAt, c.LastMessagePreview, now)
	return err
}

const conversationColumns = `id, peer_name, peer_presence, project_label, unread_count, last_message_at, last_message_preview`

// ListConversations returns conversations sorted by last message timestamp descending.
func (db *DB) ListConversations(limit, offset int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT `+conversationColumns+`
		FROM conversations
		ORDER BY last_message_at DESC, id ASC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var convs []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.PeerName, &c.PeerPresence, &c.ProjectLabel, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview); err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// GetConversation returns a single conversation, or nil if it does not exist.
func (db *DB) GetConversation(id string) (*Conversation, error) {
	var c Conversation
	err := db.QueryRow(`SELECT `+conversationColumns+` FROM conversations WHERE id = ?`, id).
		Scan(&c.ID, &c.PeerName, &c.PeerPresence, &c.ProjectLabel, &c.UnreadCount, &c.LastMessageAt, &c.LastMessagePreview)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SetPresence updates a conversation's peer presence. It reports whether the
// conversation exists.
func (db *DB) SetPresence(id, presence string) (bool, error) {
	res, err := db.Exec(`UPDATE conversations SET peer_presence = ?, updated_at = ? WHERE id = ?`,
		presence, time.Now().UnixMilli(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkConversationRead zeroes the unread count and moves the peer's
// received messages to read. It reports whether the conversation exists.
func (db *DB) MarkConversationRead(id string) (bool, error) {
	tx, err := db.Begin()
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`UPDATE conversations SET unread_count = 0, updated_at = ? WHERE id = ?`,
		time.Now().UnixMilli(), id)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, err
	}
	if _, err := tx.Exec(`UPDATE messages SET status = 'read' WHERE conversation_id = ? AND sender = 'peer' AND status = 'received'`, id); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// TouchConversation records a new message on a conversation. Inbound
// messages also bump the unread count.
func (db *DB) TouchConversation(id string, ts int64, preview string, inbound bool) error {
	inc := 0
	if inbound {
		inc = 1
	}
	_, err := db.Exec(`
		UPDATE conversations SET
			last_message_at = MAX(last_message_at, ?),
			last_message_preview = CASE WHEN ? >= last_message_at THEN ? ELSE last_message_preview END,
			unread_count = unread_count + ?,
			updated_at = ?
		WHERE id = ?`,
		ts, ts, preview, inc, time.Now().UnixMilli(), id)
	return err
}

// ConversationCount returns the number of conversations.
func (db *DB) ConversationCount() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM conversations`).Scan(&n)
	return n, err
}
