package queries

// --- User Query Constants ---

const CreateUserQuery = `
INSERT INTO users (username, client_id, status, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id
`

const GetUserByIDQuery = `
SELECT id, username, client_id, status, created_at
FROM users
WHERE id = $1
`

const GetUserByUsernameAndClientQuery = `
SELECT u.id, u.username, u.client_id, u.status, u.created_at
FROM users u
JOIN clients c ON c.id = u.client_id
WHERE u.username = $1 AND c.client_code = $2
`

const ListUsersQuery = `
SELECT u.id, u.username, u.client_id, u.status, u.created_at, c.client_code, c.name
FROM users u
JOIN clients c ON c.id = u.client_id
ORDER BY u.created_at ASC
`
