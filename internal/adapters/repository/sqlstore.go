package repository

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/skillmatch/internal/domain/model"
	"github.com/okian/skillmatch/pkg/logger"
	"github.com/okian/skillmatch/pkg/metrics"
)

const (
	driverName         = "sqlite"
	defaultBusyTimeout = 5 * time.Second
	float64Size        = 8
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS tags (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		namespace     TEXT NOT NULL,
		category      TEXT NOT NULL DEFAULT '',
		sub_category  TEXT NOT NULL DEFAULT '',
		embedding     BLOB,
		deprecated_at INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS tag_profiles (
		id          TEXT PRIMARY KEY,
		hash        TEXT NOT NULL UNIQUE,
		created_at  INTEGER NOT NULL,
		computed_at INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS tag_profile_tags (
		tag_profile_id TEXT NOT NULL REFERENCES tag_profiles(id),
		tag_id         TEXT NOT NULL,
		PRIMARY KEY (tag_profile_id, tag_id)
	)`,
	`CREATE TABLE IF NOT EXISTS profile_owners (
		kind           TEXT NOT NULL,
		owner_id       TEXT NOT NULL,
		tag_profile_id TEXT NOT NULL REFERENCES tag_profiles(id),
		updated_at     INTEGER NOT NULL,
		PRIMARY KEY (kind, owner_id)
	)`,
	`CREATE TABLE IF NOT EXISTS raw_scores (
		user_tag_profile_id TEXT NOT NULL,
		item_tag_profile_id TEXT NOT NULL,
		method              TEXT NOT NULL,
		score               REAL NOT NULL,
		created_at          INTEGER NOT NULL,
		PRIMARY KEY (user_tag_profile_id, item_tag_profile_id, method)
	)`,
}

// SQLStore is a Store backed by SQLite through database/sql.
type SQLStore struct {
	db          *sql.DB
	busyTimeout time.Duration
	now         func() time.Time
	logger      logger.Logger
}

// OpenSQLStore opens (or creates) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func OpenSQLStore(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{
		busyTimeout: defaultBusyTimeout,
		now:         time.Now,
		logger:      logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorage, path, err)
	}
	// SQLite allows one writer; a single connection also keeps ":memory:"
	// databases alive across calls.
	db.SetMaxOpenConns(1)
	s.db = db

	pragmas := []string{
		fmt.Sprintf("PRAGMA busy_timeout = %d", s.busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = ON",
	}
	for _, stmt := range append(pragmas, schema...) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: init schema: %w", ErrStorage, err)
		}
	}

	s.logger.Info(ctx, "sqlite store ready", logger.String("path", path))
	return s, nil
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// PutTag implements TagCatalog.
func (s *SQLStore) PutTag(ctx context.Context, tag model.Tag) error {
	if tag.ID == "" || !tag.Namespace.Valid() {
		return fmt.Errorf("%w: id %q namespace %q", ErrInvalidTag, tag.ID, tag.Namespace)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, namespace, category, sub_category, embedding, deprecated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			namespace = excluded.namespace,
			category = excluded.category,
			sub_category = excluded.sub_category,
			embedding = excluded.embedding,
			deprecated_at = excluded.deprecated_at`,
		tag.ID, tag.Name, string(tag.Namespace), tag.Category, tag.SubCategory,
		encodeEmbedding(tag.Embedding), nullableTime(tag.DeprecatedAt),
	)
	if err != nil {
		return storageErr("put tag", err)
	}
	return nil
}

// DeprecateTag implements TagCatalog.
func (s *SQLStore) DeprecateTag(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE tags SET deprecated_at = ? WHERE id = ?`, at.UnixNano(), id)
	if err != nil {
		return storageErr("deprecate tag", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("tag %q: %w", id, ErrNotFound)
	}
	return nil
}

// TagsByIDs implements TagCatalog.
func (s *SQLStore) TagsByIDs(ctx context.Context, ids []string) ([]model.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT id, name, namespace, category, sub_category, embedding, deprecated_at
		FROM tags WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query, stringArgs(ids)...)
	if err != nil {
		return nil, storageErr("tags by ids", err)
	}
	return scanTags(rows)
}

// TagsByProfile implements TagCatalog.
func (s *SQLStore) TagsByProfile(ctx context.Context, profileID string, ns model.Namespace) ([]model.Tag, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency("tags_by_profile", float64(time.Since(start).Milliseconds()))
	}()

	if _, err := s.Profile(ctx, profileID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.namespace, t.category, t.sub_category, t.embedding, t.deprecated_at
		FROM tag_profile_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.tag_profile_id = ? AND t.namespace = ? AND t.deprecated_at IS NULL
		ORDER BY t.id`, profileID, string(ns))
	if err != nil {
		return nil, storageErr("tags by profile", err)
	}
	return scanTags(rows)
}

// FindProfileByHash implements ProfileStore.
func (s *SQLStore) FindProfileByHash(ctx context.Context, hash string) (model.TagProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, hash, created_at, computed_at FROM tag_profiles WHERE hash = ?`, hash)
	p, err := scanProfile(row)
	if err != nil {
		return model.TagProfile{}, profileErr("hash "+hash, err)
	}
	return p, nil
}

// ResolveProfile implements ProfileStore.
func (s *SQLStore) ResolveProfile(ctx context.Context, hash string, tagIDs []string) (model.TagProfile, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.TagProfile{}, false, storageErr("begin resolve", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `SELECT id, hash, created_at, computed_at FROM tag_profiles WHERE hash = ?`, hash)
	existing, err := scanProfile(row)
	switch {
	case err == nil:
		return existing, false, tx.Commit()
	case !errors.Is(err, sql.ErrNoRows):
		return model.TagProfile{}, false, storageErr("find profile", err)
	}

	p := model.TagProfile{ID: uuid.NewString(), Hash: hash, CreatedAt: s.now().UTC()}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tag_profiles (id, hash, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Hash, p.CreatedAt.UnixNano(),
	); err != nil {
		return model.TagProfile{}, false, storageErr("insert profile", err)
	}

	members := slices.Clone(tagIDs)
	slices.Sort(members)
	for _, id := range slices.Compact(members) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tag_profile_tags (tag_profile_id, tag_id) VALUES (?, ?)`, p.ID, id,
		); err != nil {
			return model.TagProfile{}, false, storageErr("insert profile member", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return model.TagProfile{}, false, storageErr("commit resolve", err)
	}
	return p, true, nil
}

// Profile implements ProfileStore.
func (s *SQLStore) Profile(ctx context.Context, id string) (model.TagProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, hash, created_at, computed_at FROM tag_profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		return model.TagProfile{}, profileErr(id, err)
	}
	return p, nil
}

// AssignProfile implements ProfileStore.
func (s *SQLStore) AssignProfile(ctx context.Context, owner model.ProfileOwner) error {
	if !owner.Kind.Valid() || owner.OwnerID == "" {
		return fmt.Errorf("%w: %s/%q", ErrInvalidOwner, owner.Kind, owner.OwnerID)
	}
	if _, err := s.Profile(ctx, owner.ProfileID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profile_owners (kind, owner_id, tag_profile_id, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, owner_id) DO UPDATE SET
			tag_profile_id = excluded.tag_profile_id,
			updated_at = excluded.updated_at`,
		string(owner.Kind), owner.OwnerID, owner.ProfileID, s.now().UnixNano(),
	)
	if err != nil {
		return storageErr("assign profile", err)
	}
	return nil
}

// Owner implements ProfileStore.
func (s *SQLStore) Owner(ctx context.Context, kind model.OwnerKind, ownerID string) (model.ProfileOwner, error) {
	if !kind.Valid() {
		return model.ProfileOwner{}, fmt.Errorf("%w: %s", ErrInvalidOwner, kind)
	}
	var profileID string
	err := s.db.QueryRowContext(ctx,
		`SELECT tag_profile_id FROM profile_owners WHERE kind = ? AND owner_id = ?`,
		string(kind), ownerID,
	).Scan(&profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ProfileOwner{}, fmt.Errorf("owner %s/%q: %w", kind, ownerID, ErrNotFound)
	}
	if err != nil {
		return model.ProfileOwner{}, storageErr("owner", err)
	}
	return model.ProfileOwner{Kind: kind, OwnerID: ownerID, ProfileID: profileID}, nil
}

// MarkComputed implements ProfileStore.
func (s *SQLStore) MarkComputed(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := append([]any{at.UnixNano()}, stringArgs(ids)...)
	_, err := s.db.ExecContext(ctx,
		`UPDATE tag_profiles SET computed_at = ? WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return storageErr("mark computed", err)
	}
	return nil
}

// UpsertRawScore implements ScoreStore.
func (s *SQLStore) UpsertRawScore(ctx context.Context, score model.RawScore) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	if score.CreatedAt.IsZero() {
		score.CreatedAt = s.now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO raw_scores (user_tag_profile_id, item_tag_profile_id, method, score, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_tag_profile_id, item_tag_profile_id, method) DO NOTHING`,
		score.UserProfileID, score.ItemProfileID, score.Method, score.Score, score.CreatedAt.UnixNano(),
	)
	if err != nil {
		return false, storageErr("upsert raw score", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("upsert raw score", err)
	}
	return n > 0, nil
}

// PendingPairs implements ScoreStore.
func (s *SQLStore) PendingPairs(ctx context.Context, method string) ([]model.PairTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT u.tag_profile_id, i.tag_profile_id
		FROM profile_owners u
		JOIN profile_owners i ON i.kind = ?
		WHERE u.kind = ?
		  AND NOT EXISTS (
			SELECT 1 FROM raw_scores r
			WHERE r.user_tag_profile_id = u.tag_profile_id
			  AND r.item_tag_profile_id = i.tag_profile_id
			  AND r.method = ?)
		ORDER BY u.tag_profile_id, i.tag_profile_id`,
		string(model.OwnerOpportunity), string(model.OwnerUser), method,
	)
	if err != nil {
		return nil, storageErr("pending pairs", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.PairTask
	for rows.Next() {
		t := model.PairTask{Method: method}
		if err := rows.Scan(&t.UserProfileID, &t.ItemProfileID); err != nil {
			return nil, storageErr("scan pending pair", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("pending pairs", err)
	}
	return out, nil
}

// ScoresForUser implements ScoreStore.
func (s *SQLStore) ScoresForUser(ctx context.Context, userProfileID, method string) ([]model.RawScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_tag_profile_id, item_tag_profile_id, method, score, created_at
		FROM raw_scores WHERE user_tag_profile_id = ? AND method = ?
		ORDER BY item_tag_profile_id`, userProfileID, method)
	if err != nil {
		return nil, storageErr("scores for user", err)
	}
	return scanScores(rows)
}

// Scores implements ScoreStore.
func (s *SQLStore) Scores(ctx context.Context, method string) ([]model.RawScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_tag_profile_id, item_tag_profile_id, method, score, created_at
		FROM raw_scores WHERE method = ?
		ORDER BY user_tag_profile_id, item_tag_profile_id`, method)
	if err != nil {
		return nil, storageErr("scores", err)
	}
	return scanScores(rows)
}

// CountScores implements ScoreStore.
func (s *SQLStore) CountScores(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM raw_scores`).Scan(&n); err != nil {
		return 0, storageErr("count scores", err)
	}
	return n, nil
}

func scanTags(rows *sql.Rows) ([]model.Tag, error) {
	defer func() { _ = rows.Close() }()
	var out []model.Tag
	for rows.Next() {
		var (
			t          model.Tag
			ns         string
			emb        []byte
			deprecated sql.NullInt64
		)
		if err := rows.Scan(&t.ID, &t.Name, &ns, &t.Category, &t.SubCategory, &emb, &deprecated); err != nil {
			return nil, storageErr("scan tag", err)
		}
		t.Namespace = model.Namespace(ns)
		t.Embedding = decodeEmbedding(emb)
		t.DeprecatedAt = timeFromNull(deprecated)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan tags", err)
	}
	return out, nil
}

func scanScores(rows *sql.Rows) ([]model.RawScore, error) {
	defer func() { _ = rows.Close() }()
	var out []model.RawScore
	for rows.Next() {
		var (
			sc      model.RawScore
			created int64
		)
		if err := rows.Scan(&sc.UserProfileID, &sc.ItemProfileID, &sc.Method, &sc.Score, &created); err != nil {
			return nil, storageErr("scan score", err)
		}
		sc.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("scan scores", err)
	}
	return out, nil
}

func scanProfile(row *sql.Row) (model.TagProfile, error) {
	var (
		p        model.TagProfile
		created  int64
		computed sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.Hash, &created, &computed); err != nil {
		return model.TagProfile{}, err
	}
	p.CreatedAt = time.Unix(0, created).UTC()
	p.ComputedAt = timeFromNull(computed)
	return p, nil
}

func profileErr(what string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("profile %s: %w", what, ErrNotFound)
	}
	return storageErr("profile", err)
}

func storageErr(op string, err error) error {
	metrics.RecordErrorByComponent("repository", op)
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// encodeEmbedding packs a vector as little-endian float64s.
func encodeEmbedding(v []float64) []byte {
	buf := make([]byte, len(v)*float64Size)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*float64Size:], math.Float64bits(f))
	}
	return buf
}

func decodeEmbedding(buf []byte) []float64 {
	v := make([]float64, len(buf)/float64Size)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*float64Size:]))
	}
	return v
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func timeFromNull(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
