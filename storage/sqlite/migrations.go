/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package sqlite

import "database/sql"

// groups must exist before its child tables because of the foreign keys.
const schema = `
CREATE TABLE IF NOT EXISTS groups (
    code TEXT PRIMARY KEY,
    admin_name TEXT NOT NULL DEFAULT '',
    admin_token_id TEXT NOT NULL DEFAULT '',
    started INTEGER NOT NULL DEFAULT 0,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS group_members (
    group_code TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (group_code, position),
    FOREIGN KEY (group_code) REFERENCES groups(code) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS group_pairs (
    group_code TEXT NOT NULL,
    position INTEGER NOT NULL,
    giver TEXT NOT NULL,
    receiver TEXT NOT NULL,
    PRIMARY KEY (group_code, position),
    FOREIGN KEY (group_code) REFERENCES groups(code) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_group_members_name ON group_members(group_code, name COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_groups_created_at ON groups(created_at);
`

func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
