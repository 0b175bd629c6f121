package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// MySQLStateStore persists client state in the `client_state` table:
//
//	CREATE TABLE client_state (
//	  profile     VARCHAR(64)  NOT NULL,
//	  state_key   VARCHAR(64)  NOT NULL,
//	  state_value MEDIUMTEXT   NOT NULL,
//	  updated_at  TIMESTAMP    NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
//	  PRIMARY KEY (profile, state_key)
//	);
//
// Profile namespaces several storefront agents sharing one database.
type MySQLStateStore struct {
	DB      *sql.DB
	Profile string
}

func NewMySQLStateStore(db *sql.DB, profile string) *MySQLStateStore {
	if profile == "" {
		profile = "storefront"
	}
	return &MySQLStateStore{DB: db, Profile: profile}
}

// EnsureSchema creates the table when it does not exist yet.
func (r *MySQLStateStore) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS client_state (
		profile VARCHAR(64) NOT NULL,
		state_key VARCHAR(64) NOT NULL,
		state_value MEDIUMTEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (profile, state_key)
	)`)
	return err
}

func (r *MySQLStateStore) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.DB.QueryRowContext(ctx,
		"SELECT state_value FROM client_state WHERE profile=? AND state_key=? LIMIT 1",
		r.Profile, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrStateNotFound
	}
	return v, err
}

// Set upserts the value.
func (r *MySQLStateStore) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO client_state (profile, state_key, state_value) VALUES (?,?,?) ON DUPLICATE KEY UPDATE state_value=VALUES(state_value)",
		r.Profile, key, value)
	return err
}

func (r *MySQLStateStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, 0, len(keys)+1)
	args = append(args, r.Profile)
	for _, k := range keys {
		args = append(args, k)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM client_state WHERE profile=? AND state_key IN ("+placeholders+")", args...)
	return err
}
