package incidents

import (
	"context"
	"fmt"

	"incidentcore/internal/core"
)

const createTableDDL = `CREATE TABLE IF NOT EXISTS incidents (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	description VARCHAR(255) NOT NULL,
	status VARCHAR(32) NOT NULL,
	source VARCHAR(32) NOT NULL,
	creating_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_incidents_creating_date (creating_date)
)`

// EnsureSchema creates the incident table if it does not exist.
func EnsureSchema(ctx context.Context, db core.Database) error {
	if _, err := db.Exec(ctx, createTableDDL); err != nil {
		return fmt.Errorf("failed to ensure incidents schema: %w", err)
	}
	return nil
}
