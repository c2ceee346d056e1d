package database

const (
	// User queries
	queryGetUsers = `
		SELECT id, name, email, phone, university_name, registration_done, payment_done,
		       deleted, deleted_at, created_at, updated_at
		FROM users
		WHERE deleted = 0
		ORDER BY created_at`

	queryGetUserById = `
		SELECT id, name, email, phone, university_name, registration_done, payment_done,
		       deleted, deleted_at, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryGetUserByEmail = `
		SELECT id, name, email, phone, university_name, registration_done, payment_done,
		       deleted, deleted_at, created_at, updated_at
		FROM users
		WHERE email = ? AND deleted = 0`

	queryInsertUser = `
		INSERT OR IGNORE INTO users (id, name, email, phone, university_name)
		VALUES (?, ?, ?, ?, ?)`

	querySetUserDeleted = `
		UPDATE users
		SET deleted = ?, deleted_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryCompleteRegistration = `
		UPDATE users
		SET registration_done = 1, updated_at = CURRENT_TIMESTAMP
		WHERE email = ? AND deleted = 0`

	// Form queries
	queryGetFormsByOwner = `
		SELECT id, owner_id, title, status, fields, created_at, updated_at
		FROM forms
		WHERE owner_id = ?
		ORDER BY title`

	queryGetFormByOwnerTitle = `
		SELECT id, owner_id, title, status, fields, created_at, updated_at
		FROM forms
		WHERE owner_id = ? AND title = ?`

	queryInsertForm = `
		INSERT INTO forms (id, owner_id, title, status, fields)
		VALUES (?, ?, ?, ?, ?)`

	queryUpdateForm = `
		UPDATE forms
		SET status = ?, fields = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Payment queries
	queryGetVerifiedPayments = `
		SELECT id, owner_id, status, transaction_id, snapshot, created_at
		FROM payments
		WHERE status = 'verified'
		ORDER BY created_at`

	queryGetVerifiedPaymentByOwner = `
		SELECT id, owner_id, status, transaction_id, snapshot, created_at
		FROM payments
		WHERE owner_id = ? AND status = 'verified'
		ORDER BY created_at DESC
		LIMIT 1`

	queryInsertPayment = `
		INSERT INTO payments (id, owner_id, status, transaction_id, snapshot)
		VALUES (?, ?, ?, ?, ?)`
)
