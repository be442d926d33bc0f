package database

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order at startup.  Statements are
// idempotent (CREATE TABLE IF NOT EXISTS) so restarts are safe without
// a migration version table.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id           BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		title        VARCHAR(255) NOT NULL,
		duration_min INT UNSIGNED NOT NULL DEFAULT 0,
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS theaters (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name       VARCHAR(255) NOT NULL,
		location   VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS screens (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		theater_id BIGINT UNSIGNED NOT NULL,
		name       VARCHAR(100) NOT NULL,
		seat_rows  INT UNSIGNED NOT NULL,
		seat_cols  INT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_screens_theater_name (theater_id, name),
		CONSTRAINT fk_screens_theater FOREIGN KEY (theater_id) REFERENCES theaters (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS schedules (
		id         BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		screen_id  BIGINT UNSIGNED NOT NULL,
		show_date  DATE NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_schedules_screen_date (screen_id, show_date),
		CONSTRAINT fk_schedules_screen FOREIGN KEY (screen_id) REFERENCES screens (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS showtimes (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		schedule_id BIGINT UNSIGNED NOT NULL,
		movie_id    BIGINT UNSIGNED NOT NULL,
		movie_title VARCHAR(255) NOT NULL,
		show_time   VARCHAR(5) NOT NULL,
		created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_showtimes_schedule_time (schedule_id, show_time),
		CONSTRAINT fk_showtimes_schedule FOREIGN KEY (schedule_id) REFERENCES schedules (id),
		CONSTRAINT fk_showtimes_movie FOREIGN KEY (movie_id) REFERENCES movies (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id                    BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id               BIGINT UNSIGNED NOT NULL,
		movie_id              BIGINT UNSIGNED NOT NULL,
		theater_id            BIGINT UNSIGNED NOT NULL,
		screen_id             BIGINT UNSIGNED NOT NULL,
		showtime_id           BIGINT UNSIGNED NOT NULL,
		offer_code            VARCHAR(64) NULL,
		booking_date          DATE NOT NULL,
		show_time             VARCHAR(5) NOT NULL,
		payment_status        VARCHAR(20) NOT NULL,
		payment_method        VARCHAR(20) NOT NULL,
		total_price_cents     BIGINT NOT NULL,
		convenience_fee_cents BIGINT NOT NULL DEFAULT 0,
		created_at            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at            TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_bookings_user (user_id, created_at),
		CONSTRAINT fk_bookings_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS showtime_seats (
		id              BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		showtime_id     BIGINT UNSIGNED NOT NULL,
		row_idx         INT UNSIGNED NOT NULL,
		label           VARCHAR(8) NOT NULL,
		status          VARCHAR(12) NOT NULL DEFAULT 'AVAILABLE',
		price_cents     BIGINT NOT NULL,
		hold_user_id    BIGINT UNSIGNED NULL,
		hold_token      CHAR(64) NULL,
		hold_expires_at DATETIME NULL,
		booking_id      BIGINT UNSIGNED NULL,
		version         BIGINT UNSIGNED NOT NULL DEFAULT 0,
		UNIQUE KEY uq_seats_showtime_label (showtime_id, label),
		KEY idx_seats_hold_expiry (status, hold_expires_at),
		CONSTRAINT fk_seats_showtime FOREIGN KEY (showtime_id) REFERENCES showtimes (id),
		CONSTRAINT fk_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS booking_seats (
		id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		booking_id  BIGINT UNSIGNED NOT NULL,
		showtime_id BIGINT UNSIGNED NOT NULL,
		label       VARCHAR(8) NOT NULL,
		price_cents BIGINT NOT NULL,
		KEY idx_booking_seats_booking (booking_id),
		CONSTRAINT fk_booking_seats_booking FOREIGN KEY (booking_id) REFERENCES bookings (id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS wallets (
		id            BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id       BIGINT UNSIGNED NOT NULL,
		balance_cents BIGINT NOT NULL DEFAULT 0,
		created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_wallets_user (user_id)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id           CHAR(36) PRIMARY KEY,
		wallet_id    BIGINT UNSIGNED NOT NULL,
		booking_id   BIGINT UNSIGNED NULL,
		amount_cents BIGINT NOT NULL,
		type         VARCHAR(10) NOT NULL,
		status       VARCHAR(12) NOT NULL,
		description  VARCHAR(255) NOT NULL DEFAULT '',
		created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		KEY idx_wallet_txn_wallet (wallet_id, created_at),
		CONSTRAINT fk_wallet_txn_wallet FOREIGN KEY (wallet_id) REFERENCES wallets (id)
	) ENGINE=InnoDB`,
}

// Migrate applies the schema, statement by statement.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
