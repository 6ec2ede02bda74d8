package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matheuskafuri/devfeed/internal/article"
	_ "modernc.org/sqlite"
)

// Cache is the local sqlite database: a snapshot of recently fetched
// articles plus a small key/value table used for refresh bookkeeping and
// annotation storage.
type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	c := &Cache{writeDB: writeDB}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}

	// The read-only handle can only open an existing file, so it comes
	// after the schema has been created.
	readDB, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro")
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}
	c.readDB = readDB
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS articles (
			id          TEXT PRIMARY KEY,
			source      TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			link        TEXT NOT NULL DEFAULT '',
			tags        TEXT NOT NULL DEFAULT '[]',
			upvotes     INTEGER NOT NULL DEFAULT 0,
			downvotes   INTEGER NOT NULL DEFAULT 0,
			views       INTEGER NOT NULL DEFAULT 0,
			position    INTEGER NOT NULL DEFAULT 0,
			fetched_at  INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_articles_fetched ON articles(fetched_at DESC, position);
		CREATE INDEX IF NOT EXISTS idx_articles_source ON articles(source);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	return errors.Join(errs...)
}

// UpsertArticles stores a fetched sequence. Position records the order the
// feed returned them in, so listings can reproduce it.
func (c *Cache) UpsertArticles(articles []article.Article) error {
	tx, err := c.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO articles (id, source, title, description, link, tags, upvotes, downvotes, views, position, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			title = excluded.title,
			description = excluded.description,
			link = excluded.link,
			tags = excluded.tags,
			upvotes = excluded.upvotes,
			downvotes = excluded.downvotes,
			views = excluded.views,
			position = excluded.position,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for i, a := range articles {
		fetched := a.FetchedAt
		if fetched.IsZero() {
			fetched = now
		}
		source := a.Source
		if source == "" {
			source = article.SourceAPI
		}
		tags := a.Tags
		if tags == nil {
			tags = []string{}
		}
		tagJSON, err := json.Marshal(tags)
		if err != nil {
			return fmt.Errorf("encoding tags for %s: %w", a.ID, err)
		}

		_, err = stmt.Exec(string(a.ID), source, a.Title, a.Description, a.Link, string(tagJSON),
			a.Upvotes, a.Downvotes, a.Views, i, fetched.UnixNano())
		if err != nil {
			return fmt.Errorf("upserting article %s: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// likeEscaper makes user text match literally inside a LIKE pattern.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

const articleColumns = "id, source, title, description, link, tags, upvotes, downvotes, views, fetched_at"

func (c *Cache) GetArticles(opts QueryOpts) ([]article.Article, error) {
	var (
		where []string
		args  []interface{}
	)

	if opts.Source != "" {
		where = append(where, "source = ?")
		args = append(args, opts.Source)
	}

	if opts.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(articles.tags) WHERE json_each.value = ?)")
		args = append(args, opts.Tag)
	}

	if opts.Search != "" {
		where = append(where, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		term := "%" + likeEscaper.Replace(opts.Search) + "%"
		args = append(args, term, term)
	}

	query := "SELECT " + articleColumns + " FROM articles"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY fetched_at DESC, position ASC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 500
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	rows, err := c.readDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles: %w", err)
	}
	defer rows.Close()

	var articles []article.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

func (c *Cache) GetArticle(id article.ID) (article.Article, error) {
	row := c.readDB.QueryRow("SELECT "+articleColumns+" FROM articles WHERE id = ?", string(id))
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return article.Article{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return a, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(s scanner) (article.Article, error) {
	var (
		a       article.Article
		id      string
		tags    string
		fetched int64
	)
	err := s.Scan(&id, &a.Source, &a.Title, &a.Description, &a.Link, &tags, &a.Upvotes, &a.Downvotes, &a.Views, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return a, err
	}
	if err != nil {
		return a, fmt.Errorf("scanning article: %w", err)
	}
	a.ID = article.ID(id)
	a.FetchedAt = time.Unix(0, fetched)
	if err := json.Unmarshal([]byte(tags), &a.Tags); err != nil {
		return a, fmt.Errorf("decoding tags for %s: %w", id, err)
	}
	return a, nil
}

// Prune drops articles not seen in a fetch for longer than retention.
func (c *Cache) Prune(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UnixNano()
	res, err := c.writeDB.Exec("DELETE FROM articles WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting articles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		c.writeDB.Exec("VACUUM")
	}
	return n, nil
}

func (c *Cache) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := c.readDB.QueryRow("SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting articles: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("reading db size: %w", err)
	}
	return count, info.Size(), nil
}

func (c *Cache) NeedsRefresh(interval time.Duration) bool {
	value, ok, err := c.Get("last_refresh")
	if err != nil || !ok {
		return true
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return true
	}
	return time.Since(t) >= interval
}

func (c *Cache) SetLastRefresh() error {
	return c.Set("last_refresh", time.Now().Format(time.RFC3339Nano))
}
