package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Gatehouse store (SQLite).
var Migrations = migrate.NewGroup("gatehouse")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_roles",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_roles (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    name            TEXT NOT NULL,
    slug            TEXT NOT NULL,
    description     TEXT NOT NULL DEFAULT '',
    is_system       INTEGER NOT NULL DEFAULT 0,
    metadata        TEXT NOT NULL DEFAULT '{}',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at      TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(tenant_id, slug)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_roles_tenant ON gatehouse_roles (tenant_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_roles_system ON gatehouse_roles (tenant_id, is_system);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_roles`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_memberships",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_memberships (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    role_id         TEXT NOT NULL REFERENCES gatehouse_roles(id) ON DELETE CASCADE,
    user_id         TEXT NOT NULL,
    granted_by      TEXT NOT NULL DEFAULT '',
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(tenant_id, role_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_memberships_user ON gatehouse_memberships (tenant_id, user_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_memberships_role ON gatehouse_memberships (role_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_memberships`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_rules",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_rules (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    subject         TEXT NOT NULL,
    resource        TEXT NOT NULL,
    action          TEXT NOT NULL,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(tenant_id, subject, resource, action)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_rules_tenant ON gatehouse_rules (tenant_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_rules_subject ON gatehouse_rules (tenant_id, subject);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_rules`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_role_edges",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_role_edges (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    role_id         TEXT NOT NULL REFERENCES gatehouse_roles(id) ON DELETE CASCADE,
    parent_id       TEXT NOT NULL REFERENCES gatehouse_roles(id) ON DELETE CASCADE,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),

    UNIQUE(tenant_id, role_id, parent_id)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_role_edges_role ON gatehouse_role_edges (tenant_id, role_id);
CREATE INDEX IF NOT EXISTS idx_gatehouse_role_edges_parent ON gatehouse_role_edges (parent_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_role_edges`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_tokens",
			Version: "20250101000005",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_tokens (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    name            TEXT NOT NULL DEFAULT '',
    secret_hash     TEXT NOT NULL,
    scopes          TEXT NOT NULL DEFAULT '[]',
    expires_at      TEXT,
    revoked_at      TEXT,
    created_at      TEXT NOT NULL DEFAULT (datetime('now')),
    last_used_at    TEXT,

    UNIQUE(secret_hash)
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_tokens_tenant ON gatehouse_tokens (tenant_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_tokens`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_audit_events",
			Version: "20250101000006",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS gatehouse_audit_events (
    id              TEXT PRIMARY KEY,
    tenant_id       TEXT NOT NULL,
    principal_kind  TEXT NOT NULL DEFAULT '',
    principal_id    TEXT NOT NULL DEFAULT '',
    resource        TEXT NOT NULL,
    action          TEXT NOT NULL,
    path            TEXT NOT NULL,
    decision        TEXT NOT NULL,
    reason          TEXT NOT NULL DEFAULT '',
    eval_time_ns    INTEGER NOT NULL DEFAULT 0,
    created_at      TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_gatehouse_audit_tenant ON gatehouse_audit_events (tenant_id, created_at);
CREATE INDEX IF NOT EXISTS idx_gatehouse_audit_principal ON gatehouse_audit_events (principal_id, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS gatehouse_audit_events`)
				return err
			},
		},
	)
}
