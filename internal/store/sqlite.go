package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/joescharf/pinpoint/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes all access, so concurrent API requests never see
	// "database is locked". Last write wins.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", strings.ToLower(strings.TrimPrefix(pragma, "PRAGMA ")), err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// newULID generates a new ULID string.
func newULID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func fromJSON(s string, target any) error {
	if s == "" || s == "null" {
		return nil
	}
	return json.Unmarshal([]byte(s), target)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Media ---

func (s *SQLiteStore) CreateMedia(ctx context.Context, m *models.MediaFile) error {
	if m.ID == "" {
		m.ID = newULID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO media (id, name, type, url, version, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, string(m.Type), m.URL, m.Version, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create media: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetMedia(ctx context.Context, id string) (*models.MediaFile, error) {
	m := &models.MediaFile{}
	var mediaType string
	var updatedAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, type, url, version, created_at, updated_at FROM media WHERE id = ?`, id,
	).Scan(&m.ID, &m.Name, &mediaType, &m.URL, &m.Version, &m.CreatedAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound("media", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	m.Type = models.MediaType(mediaType)
	if updatedAt.Valid {
		m.UpdatedAt = &updatedAt.Time
	}
	return m, nil
}

func (s *SQLiteStore) ListMedia(ctx context.Context) ([]*models.MediaFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, type, url, version, created_at, updated_at FROM media ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var media []*models.MediaFile
	for rows.Next() {
		m := &models.MediaFile{}
		var mediaType string
		var updatedAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Name, &mediaType, &m.URL, &m.Version, &m.CreatedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		m.Type = models.MediaType(mediaType)
		if updatedAt.Valid {
			m.UpdatedAt = &updatedAt.Time
		}
		media = append(media, m)
	}
	return media, rows.Err()
}

func (s *SQLiteStore) DeleteMedia(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM media WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("media", id)
	}
	return nil
}

// --- Comments ---

const commentColumns = `id, media_id, anchor, content, author_id, author_name, author_email, author_avatar,
	status, priority, type, attachments, assignee, labels, mentioned_users, reactions, voice_url, private,
	ai_confidence, created_at, updated_at, resolved_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*models.Comment, error) {
	c := &models.Comment{}
	var anchor, status, priority, commentType, attachments, assignee, labels, mentioned, reactions string
	var aiConfidence sql.NullFloat64
	var updatedAt, resolvedAt sql.NullTime

	err := row.Scan(&c.ID, &c.MediaID, &anchor, &c.Content,
		&c.Author.ID, &c.Author.Name, &c.Author.Email, &c.Author.Avatar,
		&status, &priority, &commentType, &attachments, &assignee, &labels, &mentioned, &reactions,
		&c.VoiceURL, &c.Private, &aiConfidence, &c.CreatedAt, &updatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	c.Status = models.CommentStatus(status)
	c.Priority = models.CommentPriority(priority)
	c.Type = models.CommentType(commentType)
	if err := fromJSON(anchor, &c.Anchor); err != nil {
		return nil, fmt.Errorf("decode anchor: %w", err)
	}
	if err := fromJSON(attachments, &c.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	if assignee != "" {
		var u models.User
		if err := fromJSON(assignee, &u); err != nil {
			return nil, fmt.Errorf("decode assignee: %w", err)
		}
		c.Assignee = &u
	}
	if err := fromJSON(labels, &c.Labels); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if err := fromJSON(mentioned, &c.MentionedUsers); err != nil {
		return nil, fmt.Errorf("decode mentions: %w", err)
	}
	if err := fromJSON(reactions, &c.Reactions); err != nil {
		return nil, fmt.Errorf("decode reactions: %w", err)
	}
	if aiConfidence.Valid {
		v := aiConfidence.Float64
		c.AIConfidence = &v
	}
	if updatedAt.Valid {
		c.UpdatedAt = &updatedAt.Time
	}
	if resolvedAt.Valid {
		c.ResolvedAt = &resolvedAt.Time
	}
	c.Replies = []models.Reply{}
	return c, nil
}

func assigneeJSON(u *models.User) string {
	if u == nil {
		return ""
	}
	return toJSON(u)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func (s *SQLiteStore) CreateComment(ctx context.Context, c *models.Comment) error {
	if c.ID == "" {
		c.ID = newULID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	if c.Status == models.CommentStatusResolved && c.ResolvedAt == nil {
		at := c.CreatedAt
		c.ResolvedAt = &at
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.MediaID, toJSON(c.Anchor), c.Content,
		c.Author.ID, c.Author.Name, c.Author.Email, c.Author.Avatar,
		string(c.Status), string(c.Priority), string(c.Type),
		toJSON(nonNil(c.Attachments)), assigneeJSON(c.Assignee), toJSON(nonNil(c.Labels)),
		toJSON(nonNil(c.MentionedUsers)), toJSON(nonNil(c.Reactions)), c.VoiceURL, boolToInt(c.Private),
		nullFloat(c.AIConfidence), c.CreatedAt, c.UpdatedAt, c.ResolvedAt,
	)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}

	for i := range c.Replies {
		c.Replies[i].CommentID = c.ID
		if err := insertReply(ctx, tx, &c.Replies[i], i); err != nil {
			return err
		}
	}
	if c.Replies == nil {
		c.Replies = []models.Reply{}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (s *SQLiteStore) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, notFound("comment", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	if err := s.attachReplies(ctx, []*models.Comment{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *SQLiteStore) ListComments(ctx context.Context, filter CommentListFilter) ([]*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments`
	var conditions []string
	var args []any

	if filter.MediaID != "" {
		conditions = append(conditions, "media_id = ?")
		args = append(args, filter.MediaID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Priority != "" {
		conditions = append(conditions, "priority = ?")
		args = append(args, string(filter.Priority))
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, "author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if len(filter.IDs) > 0 {
		conditions = append(conditions, "id IN ("+placeholders(len(filter.IDs))+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if err := s.attachReplies(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// attachReplies loads replies for the given comments in one query, preserving append order.
func (s *SQLiteStore) attachReplies(ctx context.Context, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	byID := make(map[string]*models.Comment, len(comments))
	args := make([]any, 0, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
		args = append(args, c.ID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, comment_id, content, type, author_id, author_name, author_email, author_avatar,
			attachments, mentioned_users, created_at, updated_at
		FROM replies WHERE comment_id IN (`+placeholders(len(args))+`) ORDER BY comment_id, seq`, args...)
	if err != nil {
		return fmt.Errorf("list replies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var r models.Reply
		var replyType, attachments, mentioned string
		var updatedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.CommentID, &r.Content, &replyType,
			&r.Author.ID, &r.Author.Name, &r.Author.Email, &r.Author.Avatar,
			&attachments, &mentioned, &r.CreatedAt, &updatedAt); err != nil {
			return fmt.Errorf("scan reply: %w", err)
		}
		r.Type = models.CommentType(replyType)
		if err := fromJSON(attachments, &r.Attachments); err != nil {
			return fmt.Errorf("decode reply attachments: %w", err)
		}
		if err := fromJSON(mentioned, &r.MentionedUsers); err != nil {
			return fmt.Errorf("decode reply mentions: %w", err)
		}
		if updatedAt.Valid {
			r.UpdatedAt = &updatedAt.Time
		}
		if c, ok := byID[r.CommentID]; ok {
			c.Replies = append(c.Replies, r)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) UpdateComment(ctx context.Context, c *models.Comment) error {
	now := time.Now().UTC()
	c.UpdatedAt = &now
	switch {
	case c.Status == models.CommentStatusResolved && c.ResolvedAt == nil:
		c.ResolvedAt = &now
	case c.Status != models.CommentStatusResolved:
		c.ResolvedAt = nil
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE comments SET anchor=?, content=?, status=?, priority=?, type=?, attachments=?, assignee=?,
			labels=?, mentioned_users=?, reactions=?, voice_url=?, private=?, updated_at=?, resolved_at=?
		WHERE id=?`,
		toJSON(c.Anchor), c.Content, string(c.Status), string(c.Priority), string(c.Type),
		toJSON(nonNil(c.Attachments)), assigneeJSON(c.Assignee), toJSON(nonNil(c.Labels)),
		toJSON(nonNil(c.MentionedUsers)), toJSON(nonNil(c.Reactions)), c.VoiceURL, boolToInt(c.Private),
		c.UpdatedAt, c.ResolvedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("comment", c.ID)
	}
	return nil
}

func (s *SQLiteStore) DeleteComment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM comments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("comment", id)
	}
	return nil
}

func (s *SQLiteStore) BulkUpdateCommentStatus(ctx context.Context, ids []string, status models.CommentStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	args := make([]any, 0, len(ids)+3)
	args = append(args, string(status), now)

	// Already-resolved comments keep their original resolution time.
	resolvedAt := "NULL"
	if status == models.CommentStatusResolved {
		resolvedAt = "COALESCE(resolved_at, ?)"
		args = append(args, now)
	}
	for _, id := range ids {
		args = append(args, id)
	}

	query := fmt.Sprintf(
		"UPDATE comments SET status=?, updated_at=?, resolved_at=%s WHERE id IN (%s)",
		resolvedAt, placeholders(len(ids)),
	)
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update comment status: %w", err)
	}
	n, _ := result.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return n, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertReply(ctx context.Context, db execer, r *models.Reply, seq int) error {
	if r.ID == "" {
		r.ID = newULID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.Type == "" {
		r.Type = models.CommentTypeText
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO replies (id, comment_id, seq, content, type, author_id, author_name, author_email, author_avatar,
			attachments, mentioned_users, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CommentID, seq, r.Content, string(r.Type),
		r.Author.ID, r.Author.Name, r.Author.Email, r.Author.Avatar,
		toJSON(nonNil(r.Attachments)), toJSON(nonNil(r.MentionedUsers)), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reply: %w", err)
	}
	return nil
}

// AddReply appends a reply to its parent comment. Replies are never reordered.
func (s *SQLiteStore) AddReply(ctx context.Context, r *models.Reply) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM comments WHERE id = ?", r.CommentID).Scan(&exists); err != nil {
		return fmt.Errorf("check comment: %w", err)
	}
	if exists == 0 {
		return notFound("comment", r.CommentID)
	}

	var seq int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq) + 1, 0) FROM replies WHERE comment_id = ?", r.CommentID).Scan(&seq); err != nil {
		return fmt.Errorf("next reply seq: %w", err)
	}
	if err := insertReply(ctx, tx, r, seq); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE comments SET updated_at = ? WHERE id = ?", r.CreatedAt, r.CommentID); err != nil {
		return fmt.Errorf("touch comment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- Saved filters ---

func scanSavedFilter(row rowScanner) (*models.SavedFilter, error) {
	f := &models.SavedFilter{}
	var criteria string
	var lastUsed sql.NullTime
	if err := row.Scan(&f.ID, &f.Name, &criteria, &f.CreatedAt, &lastUsed, &f.UseCount); err != nil {
		return nil, err
	}
	if err := fromJSON(criteria, &f.Criteria); err != nil {
		return nil, fmt.Errorf("decode criteria: %w", err)
	}
	if lastUsed.Valid {
		f.LastUsedAt = &lastUsed.Time
	}
	return f, nil
}

func (s *SQLiteStore) CreateSavedFilter(ctx context.Context, f *models.SavedFilter) error {
	if f.ID == "" {
		f.ID = newULID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_filters (id, name, criteria, created_at, last_used_at, use_count) VALUES (?, ?, ?, ?, ?, ?)`,
		f.ID, f.Name, toJSON(f.Criteria), f.CreatedAt, f.LastUsedAt, f.UseCount,
	)
	if err != nil {
		return fmt.Errorf("create saved filter: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetSavedFilter(ctx context.Context, id string) (*models.SavedFilter, error) {
	f, err := scanSavedFilter(s.db.QueryRowContext(ctx,
		`SELECT id, name, criteria, created_at, last_used_at, use_count FROM saved_filters WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, notFound("saved filter", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get saved filter: %w", err)
	}
	return f, nil
}

func (s *SQLiteStore) ListSavedFilters(ctx context.Context) ([]*models.SavedFilter, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, criteria, created_at, last_used_at, use_count FROM saved_filters
		ORDER BY COALESCE(last_used_at, created_at) DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list saved filters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var filters []*models.SavedFilter
	for rows.Next() {
		f, err := scanSavedFilter(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saved filter: %w", err)
		}
		filters = append(filters, f)
	}
	return filters, rows.Err()
}

// MarkSavedFilterUsed bumps the use count and last-used time, returning the updated record.
func (s *SQLiteStore) MarkSavedFilterUsed(ctx context.Context, id string) (*models.SavedFilter, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE saved_filters SET use_count = use_count + 1, last_used_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("mark saved filter used: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return nil, notFound("saved filter", id)
	}
	return s.GetSavedFilter(ctx, id)
}

func (s *SQLiteStore) DeleteSavedFilter(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM saved_filters WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete saved filter: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return notFound("saved filter", id)
	}
	return nil
}

// --- Analyses ---

// SaveAnalysis replaces any prior analysis for the comment and mirrors its
// confidence onto the comment row for range filtering.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	if a.AnalyzedAt.IsZero() {
		a.AnalyzedAt = time.Now().UTC()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO analyses (comment_id, sentiment, confidence, themes, keywords, action_items, suggestions, source, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.CommentID, string(a.Sentiment), a.Confidence, toJSON(nonNil(a.Themes)), toJSON(nonNil(a.Keywords)),
		toJSON(nonNil(a.ActionItems)), toJSON(nonNil(a.Suggestions)), a.Source, a.AnalyzedAt,
	)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	result, err := tx.ExecContext(ctx, "UPDATE comments SET ai_confidence = ? WHERE id = ?", a.Confidence, a.CommentID)
	if err != nil {
		return fmt.Errorf("mirror analysis confidence: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("comment", a.CommentID)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListAnalyses returns analyses for the given comments, or all when commentIDs is empty.
func (s *SQLiteStore) ListAnalyses(ctx context.Context, commentIDs []string) ([]*models.Analysis, error) {
	query := `SELECT comment_id, sentiment, confidence, themes, keywords, action_items, suggestions, source, analyzed_at FROM analyses`
	var args []any
	if len(commentIDs) > 0 {
		query += " WHERE comment_id IN (" + placeholders(len(commentIDs)) + ")"
		for _, id := range commentIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY comment_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analyses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var analyses []*models.Analysis
	for rows.Next() {
		a := &models.Analysis{}
		var sentiment, themes, keywords, actions, suggestions string
		if err := rows.Scan(&a.CommentID, &sentiment, &a.Confidence, &themes, &keywords, &actions, &suggestions, &a.Source, &a.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.Sentiment = models.Sentiment(sentiment)
		for _, f := range []struct {
			raw    string
			target any
		}{{themes, &a.Themes}, {keywords, &a.Keywords}, {actions, &a.ActionItems}, {suggestions, &a.Suggestions}} {
			if err := fromJSON(f.raw, f.target); err != nil {
				return nil, fmt.Errorf("decode analysis: %w", err)
			}
		}
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}
