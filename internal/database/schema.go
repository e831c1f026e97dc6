package database

// Schema is the database DDL applied by cmd/migrate. Statements are
// idempotent so the migrator can be re-run safely.
//
// The bookings exclusion constraint is load-bearing: it rejects any two
// bookings on the same unit with overlapping [check_in, check_out) ranges
// while both are in a blocking status, even if two requests race past the
// application-level check.
var Schema = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		phone VARCHAR(20) UNIQUE NOT NULL,
		first_name VARCHAR(100) NOT NULL DEFAULT '',
		last_name VARCHAR(100) NOT NULL DEFAULT '',
		email VARCHAR(255) NOT NULL DEFAULT '',
		roles TEXT[] NOT NULL DEFAULT '{camper}',
		status VARCHAR(20) NOT NULL DEFAULT 'active',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS camps (
		id UUID PRIMARY KEY,
		owner_user_id UUID NOT NULL REFERENCES users(id),
		name VARCHAR(120) NOT NULL,
		region VARCHAR(80) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS units (
		id UUID PRIMARY KEY,
		camp_id UUID NOT NULL REFERENCES camps(id),
		name VARCHAR(120) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price_per_night NUMERIC(12,2) NOT NULL CHECK (price_per_night > 0),
		currency CHAR(3) NOT NULL DEFAULT 'ETB',
		capacity INT NOT NULL CHECK (capacity > 0),
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id UUID PRIMARY KEY,
		unit_id UUID NOT NULL REFERENCES units(id),
		camper_id UUID NOT NULL REFERENCES users(id),
		check_in DATE NOT NULL,
		check_out DATE NOT NULL,
		nights INT NOT NULL CHECK (nights >= 1),
		guests INT NOT NULL CHECK (guests > 0),
		price_per_night NUMERIC(12,2) NOT NULL,
		total_price NUMERIC(12,2) NOT NULL,
		currency CHAR(3) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		payment_status VARCHAR(20) NOT NULL DEFAULT 'unpaid',
		payment_gateway VARCHAR(20),
		payment_tx_ref VARCHAR(120),
		hold_expires_at TIMESTAMPTZ NOT NULL,
		confirmed_at TIMESTAMPTZ,
		cancelled_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		idempotency_key VARCHAR(120),
		CHECK (check_out > check_in),
		CONSTRAINT bookings_no_overlap EXCLUDE USING gist (
			unit_id WITH =,
			daterange(check_in, check_out) WITH &&
		) WHERE (status IN ('pending', 'confirmed'))
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS bookings_idempotency_key_idx
		ON bookings (camper_id, idempotency_key)
		WHERE idempotency_key IS NOT NULL`,

	`CREATE UNIQUE INDEX IF NOT EXISTS bookings_payment_tx_ref_idx
		ON bookings (payment_gateway, payment_tx_ref)
		WHERE payment_tx_ref IS NOT NULL`,

	`CREATE INDEX IF NOT EXISTS bookings_unit_range_idx
		ON bookings (unit_id, check_in, check_out)`,

	`CREATE TABLE IF NOT EXISTS payment_events (
		id UUID PRIMARY KEY,
		booking_id UUID REFERENCES bookings(id),
		gateway VARCHAR(20) NOT NULL,
		tx_ref VARCHAR(120) NOT NULL,
		event_type VARCHAR(20) NOT NULL,
		amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		currency CHAR(3) NOT NULL DEFAULT 'ETB',
		success BOOLEAN NOT NULL DEFAULT FALSE,
		is_duplicate BOOLEAN NOT NULL DEFAULT FALSE,
		raw_payload BYTEA,
		error_detail TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// First delivery of a (gateway, tx_ref, event_type) takes this slot,
	// redeliveries land as is_duplicate rows
	`CREATE UNIQUE INDEX IF NOT EXISTS payment_events_dedup_idx
		ON payment_events (gateway, tx_ref, event_type)
		WHERE NOT is_duplicate`,
}
