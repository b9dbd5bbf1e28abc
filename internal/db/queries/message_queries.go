package queries

// --- Message Query Constants ---

const CreateMessageQuery = `
INSERT INTO messages (conversation_id, role, content, timestamp)
VALUES ($1, $2, $3, $4)
RETURNING id
`

const ListMessagesByConversationQuery = `
SELECT id, conversation_id, role, content, timestamp
FROM messages
WHERE conversation_id = $1
ORDER BY timestamp ASC
`

const CountMessagesByConversationQuery = `
SELECT COUNT(*) FROM messages WHERE conversation_id = $1
`
