package queries

// --- Conversation Query Constants ---

const CreateConversationQuery = `
INSERT INTO conversations (user_id, client_id, title, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`

const GetConversationSinceQuery = `
SELECT id, user_id, client_id, title, created_at, updated_at
FROM conversations
WHERE user_id = $1 AND created_at >= $2
ORDER BY created_at ASC
LIMIT 1
`

const GetLatestConversationQuery = `
SELECT id, user_id, client_id, title, created_at, updated_at
FROM conversations
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1
`

const GetPreviousConversationQuery = `
SELECT id, user_id, client_id, title, created_at, updated_at
FROM conversations
WHERE user_id = $1 AND id != $2
ORDER BY created_at DESC
LIMIT 1
`

const ListConversationsByUserQuery = `
SELECT id, user_id, client_id, title, created_at, updated_at
FROM conversations
WHERE user_id = $1
ORDER BY created_at ASC
`

// DeleteConversationsBeforeQuery removes conversations (and, via ON DELETE
// CASCADE, their messages) older than the retention cutoff.
const DeleteConversationsBeforeQuery = `
DELETE FROM conversations WHERE created_at < $1
`
