package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Схема хранилища импорта (опции атрибутов и справочник регионов) версионируется
// встроенными файлами sql/migrations/NNNN_name.up.sql и NNNN_name.down.sql.
// Применённые версии хранятся в import_schema_versions вместе с sha256 up-скрипта.

const (
	schemaDir      = "sql/migrations"
	schemaLockName = "commerce-import:schema"
	schemaTableDDL = `
CREATE TABLE IF NOT EXISTS import_schema_versions (
    version BIGINT PRIMARY KEY,
    name TEXT NOT NULL,
    checksum TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
)

//go:embed sql/migrations/*.sql
var schemaFS embed.FS

// ErrSchemaDrift — применённая версия схемы не совпадает со встроенным скриптом.
var ErrSchemaDrift = errors.New("applied schema version differs from embedded script")

// MigrationInfo описывает встроенную миграцию и её состояние в базе.
type MigrationInfo struct {
	Version   int64
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// schemaStep — up/down скрипты одной версии схемы.
type schemaStep struct {
	Version int64
	Name    string
	Up      string
	Down    string
}

func (st schemaStep) label() string {
	return fmt.Sprintf("%04d_%s", st.Version, st.Name)
}

func (st schemaStep) checksum() string {
	sum := sha256.Sum256([]byte(st.Up))
	return hex.EncodeToString(sum[:])
}

type appliedVersion struct {
	Checksum  string
	AppliedAt time.Time
}

// schemaPlan — шаги схемы по возрастанию версии.
type schemaPlan []schemaStep

func (p schemaPlan) step(version int64) (schemaStep, bool) {
	i, found := slices.BinarySearchFunc(p, version, func(st schemaStep, v int64) int {
		switch {
		case st.Version < v:
			return -1
		case st.Version > v:
			return 1
		}
		return 0
	})
	if !found {
		return schemaStep{}, false
	}
	return p[i], true
}

// pending возвращает неприменённые шаги, не больше limit (0 — все).
func (p schemaPlan) pending(applied map[int64]appliedVersion, limit int) []schemaStep {
	var out []schemaStep
	for _, st := range p {
		if _, ok := applied[st.Version]; ok {
			continue
		}
		out = append(out, st)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// rollback возвращает последние limit применённых шагов, начиная с самой новой версии.
func (p schemaPlan) rollback(applied map[int64]appliedVersion, limit int) ([]schemaStep, error) {
	versions := make([]int64, 0, len(applied))
	for v := range applied {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	slices.Reverse(versions)
	if len(versions) > limit {
		versions = versions[:limit]
	}

	out := make([]schemaStep, 0, len(versions))
	for _, v := range versions {
		st, ok := p.step(v)
		if !ok {
			return nil, fmt.Errorf("schema version %d is applied but not embedded", v)
		}
		out = append(out, st)
	}
	return out, nil
}

// verify сверяет контрольные суммы применённых версий со встроенными скриптами.
// Версии, которых нет среди встроенных, не проверяются.
func (p schemaPlan) verify(applied map[int64]appliedVersion) error {
	for _, st := range p {
		got, ok := applied[st.Version]
		if !ok {
			continue
		}
		if got.Checksum != st.checksum() {
			return fmt.Errorf("%s: %w", st.label(), ErrSchemaDrift)
		}
	}
	return nil
}

// parseSchemaFile разбирает имя вида 0001_attribute_options.up.sql.
func parseSchemaFile(file string) (version int64, name, direction string, err error) {
	base, ok := strings.CutSuffix(file, ".sql")
	if !ok {
		return 0, "", "", fmt.Errorf("schema file %s: not an .sql file", file)
	}
	switch {
	case strings.HasSuffix(base, ".up"):
		base, direction = strings.TrimSuffix(base, ".up"), "up"
	case strings.HasSuffix(base, ".down"):
		base, direction = strings.TrimSuffix(base, ".down"), "down"
	default:
		return 0, "", "", fmt.Errorf("schema file %s: missing .up or .down suffix", file)
	}

	digits, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", "", fmt.Errorf("schema file %s: expected <version>_<name>", file)
	}
	version, err = strconv.ParseInt(digits, 10, 64)
	if err != nil || version <= 0 {
		return 0, "", "", fmt.Errorf("schema file %s: bad version %q", file, digits)
	}
	if strings.IndexFunc(name, func(r rune) bool {
		return r != '_' && (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9')
	}) >= 0 {
		return 0, "", "", fmt.Errorf("schema file %s: bad name %q", file, name)
	}
	return version, name, direction, nil
}

// loadSchemaPlan читает шаги схемы из fsys. У каждой версии должны быть оба скрипта.
func loadSchemaPlan(fsys fs.FS) (schemaPlan, error) {
	entries, err := fs.ReadDir(fsys, schemaDir)
	if err != nil {
		return nil, fmt.Errorf("read schema dir: %w", err)
	}

	steps := make(map[int64]*schemaStep)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, direction, err := parseSchemaFile(entry.Name())
		if err != nil {
			return nil, err
		}
		raw, err := fs.ReadFile(fsys, path.Join(schemaDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read schema file %s: %w", entry.Name(), err)
		}
		script := strings.TrimSpace(string(raw))
		if script == "" {
			return nil, fmt.Errorf("schema file %s is empty", entry.Name())
		}

		st, ok := steps[version]
		if !ok {
			st = &schemaStep{Version: version, Name: name}
			steps[version] = st
		}
		if st.Name != name {
			return nil, fmt.Errorf("schema version %d named both %s and %s", version, st.Name, name)
		}
		target := &st.Up
		if direction == "down" {
			target = &st.Down
		}
		if *target != "" {
			return nil, fmt.Errorf("schema version %d has two %s scripts", version, direction)
		}
		*target = script
	}
	if len(steps) == 0 {
		return nil, errors.New("no schema files embedded")
	}

	plan := make(schemaPlan, 0, len(steps))
	for _, st := range steps {
		if st.Up == "" || st.Down == "" {
			return nil, fmt.Errorf("schema version %s needs both up and down scripts", st.label())
		}
		plan = append(plan, *st)
	}
	slices.SortFunc(plan, func(a, b schemaStep) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	return plan, nil
}

// schemaSession — выделенное соединение для работы со схемой.
type schemaSession struct {
	conn *sql.Conn
}

func (ss schemaSession) ensureTable(ctx context.Context) error {
	if _, err := ss.conn.ExecContext(ctx, schemaTableDDL); err != nil {
		return fmt.Errorf("ensure schema version table: %w", err)
	}
	return nil
}

func (ss schemaSession) applied(ctx context.Context) (map[int64]appliedVersion, error) {
	rows, err := ss.conn.QueryContext(ctx, `SELECT version, checksum, applied_at FROM import_schema_versions`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]appliedVersion)
	for rows.Next() {
		var (
			version int64
			row     appliedVersion
		)
		if err := rows.Scan(&version, &row.Checksum, &row.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan schema version: %w", err)
		}
		out[version] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schema versions: %w", err)
	}
	return out, nil
}

// run выполняет скрипт шага и обновляет журнал версий в одной транзакции.
func (ss schemaSession) run(ctx context.Context, st schemaStep, up bool) (err error) {
	script, bookkeeping, args := st.Down, `DELETE FROM import_schema_versions WHERE version = $1`, []any{st.Version}
	verb := "revert"
	if up {
		script = st.Up
		bookkeeping = `INSERT INTO import_schema_versions (version, name, checksum) VALUES ($1, $2, $3)`
		args = []any{st.Version, st.Name, st.checksum()}
		verb = "apply"
	}

	tx, err := ss.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s %s: begin: %w", verb, st.label(), err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("%s %s: %w", verb, st.label(), err)
	}
	if _, err = tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		return fmt.Errorf("%s %s: record version: %w", verb, st.label(), err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s %s: commit: %w", verb, st.label(), err)
	}
	return nil
}

// withSchema выдаёт fn соединение с готовой таблицей версий. При locked соединение
// удерживает advisory-lock, чтобы параллельные запуски migrate не пересекались.
func (s *Store) withSchema(ctx context.Context, locked bool, fn func(schemaSession, schemaPlan) error) error {
	if s == nil || s.db == nil {
		return errStoreNotInitialized
	}
	plan, err := loadSchemaPlan(schemaFS)
	if err != nil {
		return err
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire schema connection: %w", err)
	}
	defer conn.Close()

	if locked {
		lockCtx, cancel := context.WithTimeout(ctx, opTimeout)
		_, err := conn.ExecContext(lockCtx, `SELECT pg_advisory_lock(hashtext($1))`, schemaLockName)
		cancel()
		if err != nil {
			return fmt.Errorf("acquire schema lock: %w", err)
		}
		defer func() {
			_, _ = conn.ExecContext(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock(hashtext($1))`, schemaLockName)
		}()
	}

	session := schemaSession{conn: conn}
	if err := session.ensureTable(ctx); err != nil {
		return err
	}
	return fn(session, plan)
}

// MigrateUp применяет неприменённые версии схемы по возрастанию. steps=0 — все.
// Если уже применённая версия разошлась со встроенным скриптом, ничего не применяется.
func (s *Store) MigrateUp(ctx context.Context, steps int) error {
	return s.withSchema(ctx, true, func(ss schemaSession, plan schemaPlan) error {
		applied, err := ss.applied(ctx)
		if err != nil {
			return err
		}
		if err := plan.verify(applied); err != nil {
			return err
		}
		for _, st := range plan.pending(applied, steps) {
			if err := ss.run(ctx, st, true); err != nil {
				return err
			}
		}
		return nil
	})
}

// MigrateDown откатывает последние steps версий; steps<=0 откатывает одну.
func (s *Store) MigrateDown(ctx context.Context, steps int) error {
	if steps <= 0 {
		steps = 1
	}
	return s.withSchema(ctx, true, func(ss schemaSession, plan schemaPlan) error {
		applied, err := ss.applied(ctx)
		if err != nil {
			return err
		}
		targets, err := plan.rollback(applied, steps)
		if err != nil {
			return err
		}
		for _, st := range targets {
			if err := ss.run(ctx, st, false); err != nil {
				return err
			}
		}
		return nil
	})
}

// MigrationStatus возвращает последнюю применённую версию и число применённых версий.
func (s *Store) MigrationStatus(ctx context.Context) (int64, int, error) {
	if s == nil || s.db == nil {
		return 0, 0, errStoreNotInitialized
	}

	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := s.db.ExecContext(queryCtx, schemaTableDDL); err != nil {
		return 0, 0, fmt.Errorf("ensure schema version table: %w", err)
	}
	var (
		version int64
		count   int
	)
	if err := s.db.QueryRowContext(queryCtx,
		`SELECT COALESCE(MAX(version), 0), COUNT(*) FROM import_schema_versions`,
	).Scan(&version, &count); err != nil {
		return 0, 0, fmt.Errorf("query schema status: %w", err)
	}
	return version, count, nil
}

// Migrations перечисляет встроенные версии схемы с отметкой о применении.
func (s *Store) Migrations(ctx context.Context) ([]MigrationInfo, error) {
	var infos []MigrationInfo
	err := s.withSchema(ctx, false, func(ss schemaSession, plan schemaPlan) error {
		applied, err := ss.applied(ctx)
		if err != nil {
			return err
		}
		infos = make([]MigrationInfo, 0, len(plan))
		for _, st := range plan {
			row, ok := applied[st.Version]
			infos = append(infos, MigrationInfo{Version: st.Version, Name: st.Name, Applied: ok, AppliedAt: row.AppliedAt})
		}
		return nil
	})
	return infos, err
}
