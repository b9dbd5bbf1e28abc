package queries

// --- Template Query Constants ---

const CreateTemplateQuery = `
INSERT INTO templates (key, description, data_type, status)
VALUES ($1, $2, $3, $4)
RETURNING id
`

const GetTemplateByIDQuery = `
SELECT id, key, description, data_type, status
FROM templates
WHERE id = $1
`

const ListTemplatesQuery = `
SELECT id, key, description, data_type, status
FROM templates
ORDER BY id ASC
`

const ListActiveTemplatesQuery = `
SELECT id, key, description, data_type, status
FROM templates
WHERE status = 'active'
ORDER BY id ASC
`

const UpdateTemplateQuery = `
UPDATE templates
SET key = $1, description = $2, data_type = $3, status = $4
WHERE id = $5
`
