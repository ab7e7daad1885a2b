package repositories

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/flickx/internal/shared"
)

// CookieRepository stores cookies per origin ("scheme://host").
type CookieRepository struct {
	db *sql.DB
}

// NewCookieRepository creates a new [CookieRepository] with the given database connection
func NewCookieRepository(db *sql.DB) *CookieRepository {
	return &CookieRepository{db: db}
}

func cookiePath(c *http.Cookie) string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}

// Upsert saves c for origin, replacing any cookie with the same name and path.
func (r *CookieRepository) Upsert(origin string, c *http.Cookie) error {
	var expires sql.NullTime
	switch {
	case c.MaxAge > 0:
		expires = sql.NullTime{Time: time.Now().Add(time.Duration(c.MaxAge) * time.Second), Valid: true}
	case !c.Expires.IsZero():
		expires = sql.NullTime{Time: c.Expires, Valid: true}
	}

	query := `
		INSERT INTO cookies (origin, name, value, path, expires_at, http_only, secure, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(origin, name, path) DO UPDATE SET
			value = excluded.value, expires_at = excluded.expires_at, http_only = excluded.http_only,
			secure = excluded.secure, updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(query, origin, c.Name, c.Value, cookiePath(c), expires, boolInt(c.HttpOnly), boolInt(c.Secure), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save cookie %s: %w", c.Name, err)
	}
	return nil
}

// Delete removes the cookie name at path for origin.
func (r *CookieRepository) Delete(origin, name, path string) error {
	if path == "" {
		path = "/"
	}
	result, err := r.db.Exec(`DELETE FROM cookies WHERE origin = ? AND name = ? AND path = ?`, origin, name, path)
	if err != nil {
		return fmt.Errorf("failed to delete cookie %s: %w", name, err)
	}
	return expectRow(result, "cookie", name)
}

// List returns the unexpired cookies for origin.
func (r *CookieRepository) List(origin string) ([]*http.Cookie, error) {
	rows, err := r.db.Query(`
		SELECT name, value, path, expires_at, http_only, secure
		FROM cookies
		WHERE origin = ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY name, path
	`, origin, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	var cookies []*http.Cookie
	for rows.Next() {
		var (
			c        http.Cookie
			expires  sql.NullTime
			httpOnly int
			secure   int
		)
		if err := rows.Scan(&c.Name, &c.Value, &c.Path, &expires, &httpOnly, &secure); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		if expires.Valid {
			c.Expires = expires.Time
		}
		c.HttpOnly = httpOnly != 0
		c.Secure = secure != 0
		cookies = append(cookies, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cookies: %w", err)
	}
	return cookies, nil
}

// Origins lists every origin with at least one stored cookie.
func (r *CookieRepository) Origins() ([]string, error) {
	rows, err := r.db.Query(`SELECT DISTINCT origin FROM cookies ORDER BY origin`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cookie origins: %w", err)
	}
	defer rows.Close()

	var origins []string
	for rows.Next() {
		var origin string
		if err := rows.Scan(&origin); err != nil {
			return nil, fmt.Errorf("failed to scan origin: %w", err)
		}
		origins = append(origins, origin)
	}
	return origins, rows.Err()
}

// Clear deletes every cookie for origin.
func (r *CookieRepository) Clear(origin string) error {
	if _, err := r.db.Exec(`DELETE FROM cookies WHERE origin = ?`, origin); err != nil {
		return fmt.Errorf("failed to clear cookies: %w", err)
	}
	return nil
}

// PersistentJar is an [http.CookieJar] backed by [cookiejar.Jar] that writes every change through to a
// [CookieRepository].
type PersistentJar struct {
	jar    *cookiejar.Jar
	repo   *CookieRepository
	logger *log.Logger
	now    func() time.Time
}

// NewPersistentJar creates a jar and loads every stored cookie into it.
func NewPersistentJar(repo *CookieRepository, logger *log.Logger) (*PersistentJar, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	p := &PersistentJar{
		jar:    jar,
		repo:   repo,
		logger: shared.WithLogger(logger, "component", "cookies"),
		now:    time.Now,
	}

	origins, err := repo.Origins()
	if err != nil {
		return nil, err
	}
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil {
			p.logger.Warn("skipping stored cookies", "origin", origin, "error", err)
			continue
		}
		cookies, err := repo.List(origin)
		if err != nil {
			return nil, err
		}
		jar.SetCookies(u, cookies)
	}
	return p, nil
}

func originOf(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// SetCookies stores cookies in memory and in the repository. A cookie that is expired or has a negative
// MaxAge deletes the stored row. Storage errors are logged.
func (p *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	p.jar.SetCookies(u, cookies)

	origin := originOf(u)
	for _, c := range cookies {
		if p.expired(c) {
			if err := p.repo.Delete(origin, c.Name, cookiePath(c)); err != nil {
				p.logger.Debug("no stored cookie to delete", "name", c.Name, "error", err)
			}
			continue
		}
		if err := p.repo.Upsert(origin, c); err != nil {
			p.logger.Error("failed to persist cookie", "name", c.Name, "error", err)
		}
	}
}

// Cookies returns the cookies to send to u.
func (p *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return p.jar.Cookies(u)
}

func (p *PersistentJar) expired(c *http.Cookie) bool {
	if c.MaxAge < 0 {
		return true
	}
	return c.MaxAge == 0 && !c.Expires.IsZero() && !c.Expires.After(p.now())
}
