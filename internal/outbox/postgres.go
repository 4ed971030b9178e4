/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package outbox

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	applog "maskpaint/internal/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresSink stores submissions in a shared Postgres database.
type PostgresSink struct {
	db *sql.DB
}

// OpenPostgres connects, pings and applies pending migrations. A non-empty
// password replaces the one in dsn.
func OpenPostgres(ctx context.Context, dsn, password string) (*PostgresSink, error) {
	l := applog.WithOperation(applog.WithComponent("outbox"), "pg_open")
	dsn, err := withPassword(dsn, password)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := applyMigrations(pctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	l.Info("postgres outbox ready")
	return &PostgresSink{db: db}, nil
}

func withPassword(dsn, password string) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		return "", errors.New("postgres dsn is required")
	}
	if password == "" {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return "", fmt.Errorf("postgres dsn must be a URL to carry a stored credential")
	}
	name := ""
	if u.User != nil {
		name = u.User.Username()
	}
	u.User = url.UserPassword(name, password)
	return u.String(), nil
}

func applyMigrations(ctx context.Context, db *sql.DB) error {
	l := applog.WithComponent("outbox")
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version BIGINT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	applied := map[int64]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("select schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			_ = rows.Close()
			return err
		}
		applied[v] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, fname := range files {
		v, err := parseVersion(fname)
		if err != nil {
			return err
		}
		if applied[v] {
			continue
		}
		b, err := migrationsFS.ReadFile(path.Join("migrations", fname))
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		l.Info("applying migration", slog.String("file", fname))
		if _, err := db.ExecContext(ctx, string(b)); err != nil {
			return fmt.Errorf("apply %s: %w", fname, err)
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES($1, $2) ON CONFLICT DO NOTHING`, v, fname); err != nil {
			return fmt.Errorf("record %s: %w", fname, err)
		}
	}
	return nil
}

func parseVersion(name string) (int64, error) {
	parts := strings.SplitN(path.Base(name), "_", 2)
	v, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse version from %s: %w", name, err)
	}
	return v, nil
}

func (p *PostgresSink) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	m, manifest, err := prepare(sub)
	if err != nil {
		return Receipt{}, err
	}
	var id int64
	err = p.db.QueryRowContext(ctx, `INSERT INTO submissions(filename, width, height, sha256, prompt, manifest, png, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		m.Filename, m.Width, m.Height, m.SHA256, m.Prompt, string(manifest), sub.PNG, m.CreatedAt).Scan(&id)
	if err != nil {
		return Receipt{}, fmt.Errorf("insert submission: %w", err)
	}
	applog.WithComponent("outbox").Info("submission stored", slog.String("db", "postgres"), slog.Int64("id", id))
	return Receipt{ID: strconv.FormatInt(id, 10), Location: "postgres"}, nil
}

func (p *PostgresSink) Latest(ctx context.Context) (Stored, error) {
	return scanLatest(p.db.QueryRowContext(ctx,
		`SELECT id, manifest, png, to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"') FROM submissions ORDER BY id DESC LIMIT 1`))
}

func (p *PostgresSink) Close() error { return p.db.Close() }

func scanLatest(row *sql.Row) (Stored, error) {
	var st Stored
	var raw string
	if err := row.Scan(&st.ID, &raw, &st.PNG, &st.CreatedAt); err != nil {
		return Stored{}, fmt.Errorf("select submission: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &st.Manifest); err != nil {
		return Stored{}, fmt.Errorf("decode manifest: %w", err)
	}
	return st, nil
}
