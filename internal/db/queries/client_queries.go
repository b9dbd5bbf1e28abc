package queries

// --- Client Query Constants ---

const CreateClientQuery = `
INSERT INTO clients (client_code, name, status, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id
`

const GetClientByIDQuery = `
SELECT id, client_code, name, status, created_at
FROM clients
WHERE id = $1
`

const GetClientByCodeQuery = `
SELECT id, client_code, name, status, created_at
FROM clients
WHERE client_code = $1
`

const ListClientsQuery = `
SELECT id, client_code, name, status, created_at
FROM clients
ORDER BY name ASC
`

const UpdateClientQuery = `
UPDATE clients
SET name = $1, status = $2
WHERE client_code = $3
`
