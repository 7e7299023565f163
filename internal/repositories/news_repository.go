package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
)

// newsRepository implements news repository operations
type newsRepository struct {
	db *sql.DB
}

// NewNewsRepository creates a new news repository
func NewNewsRepository(db *sql.DB) *newsRepository {
	return &newsRepository{
		db: db,
	}
}

const newsColumns = `news_id, admin_id, title, description, image_url, news_type, publish_date, active, created_at, updated_at, version`

// Create inserts a new news record. The version starts at 1.
func (r *newsRepository) Create(ctx context.Context, news *models.News) error {
	query := `
		INSERT INTO news (news_id, admin_id, title, description, image_url, news_type, publish_date, active, created_at, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`

	_, err := r.db.ExecContext(ctx, query,
		news.ID,
		news.AdminID,
		news.Title,
		news.Description,
		news.ImageURL,
		news.NewsType,
		nullableDate(news.PublishDate),
		news.Active,
		news.CreatedAt,
		news.UpdatedAt,
	)
	if err != nil {
		return wrapDBError("create news", err)
	}

	news.Version = 1
	return nil
}

// GetByID retrieves a news record by ID
func (r *newsRepository) GetByID(ctx context.Context, id string) (*models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE news_id = ? LIMIT 1`

	news, err := scanNews(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: news with id %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, wrapDBError("get news by id", err)
	}

	return news, nil
}

// GetAll retrieves news ordered by publish date, newest first.
// When activeOnly is set inactive records are skipped.
func (r *newsRepository) GetAll(ctx context.Context, activeOnly bool) ([]models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY publish_date DESC, created_at DESC`

	return r.query(ctx, "get all news", query)
}

// GetByAdminID retrieves news written by an administrator
func (r *newsRepository) GetByAdminID(ctx context.Context, adminID string) ([]models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE admin_id = ? ORDER BY publish_date DESC, created_at DESC`
	return r.query(ctx, "get news by admin", query, adminID)
}

// GetByNewsType retrieves news of a category
func (r *newsRepository) GetByNewsType(ctx context.Context, newsType string) ([]models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE news_type = ? ORDER BY publish_date DESC, created_at DESC`
	return r.query(ctx, "get news by type", query, newsType)
}

// SearchByTitle retrieves news whose title contains the term, ignoring case
func (r *newsRepository) SearchByTitle(ctx context.Context, term string) ([]models.News, error) {
	query := `SELECT ` + newsColumns + ` FROM news WHERE LOWER(title) LIKE ? ESCAPE '\\' ORDER BY publish_date DESC, created_at DESC`
	return r.query(ctx, "search news by title", query, "%"+escapeLike(strings.ToLower(term))+"%")
}

// Update overwrites the editable fields of a news record when its version still equals expectedVersion.
// On success news.Version is advanced. A stale version yields ErrConflict, a missing record ErrNotFound.
func (r *newsRepository) Update(ctx context.Context, news *models.News, expectedVersion int) error {
	query := `
		UPDATE news
		SET admin_id = ?, title = ?, description = ?, image_url = ?, news_type = ?,
		    publish_date = ?, active = ?, updated_at = ?, version = version + 1
		WHERE news_id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		news.AdminID,
		news.Title,
		news.Description,
		news.ImageURL,
		news.NewsType,
		nullableDate(news.PublishDate),
		news.Active,
		news.UpdatedAt,
		news.ID,
		expectedVersion,
	)
	if err != nil {
		return wrapDBError("update news", err)
	}

	if err := r.checkVersionedUpdate(ctx, result, news.ID); err != nil {
		return err
	}

	news.Version = expectedVersion + 1
	return nil
}

// UpdateImageURL replaces the image URL of a news record under the same version rule as Update
func (r *newsRepository) UpdateImageURL(ctx context.Context, id, imageURL string, updatedAt time.Time, expectedVersion int) error {
	query := `UPDATE news SET image_url = ?, updated_at = ?, version = version + 1 WHERE news_id = ? AND version = ?`

	result, err := r.db.ExecContext(ctx, query, imageURL, updatedAt, id, expectedVersion)
	if err != nil {
		return wrapDBError("update news image", err)
	}

	return r.checkVersionedUpdate(ctx, result, id)
}

// DeleteByID deletes a news record by ID
func (r *newsRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM news WHERE news_id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapDBError("delete news", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapDBError("get rows affected", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: news with id %s", apperrors.ErrNotFound, id)
	}

	return nil
}

// GetImageURLs returns the non-empty stored image URLs of all news records
func (r *newsRepository) GetImageURLs(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, r.db, "get news image urls", `SELECT image_url FROM news WHERE image_url <> ''`)
}

// checkVersionedUpdate tells a stale version apart from a missing record when no row was updated
func (r *newsRepository) checkVersionedUpdate(ctx context.Context, result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapDBError("get rows affected", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM news WHERE news_id = ?)`, id).Scan(&exists)
	if err != nil {
		return wrapDBError("check news existence", err)
	}
	if !exists {
		return fmt.Errorf("%w: news with id %s", apperrors.ErrNotFound, id)
	}
	return fmt.Errorf("%w: news %s was modified concurrently", apperrors.ErrConflict, id)
}

func (r *newsRepository) query(ctx context.Context, op, query string, args ...any) ([]models.News, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(op, err)
	}
	defer rows.Close()

	newsList := []models.News{}
	for rows.Next() {
		news, err := scanNews(rows)
		if err != nil {
			return nil, wrapDBError(op, err)
		}
		newsList = append(newsList, *news)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBError(op, err)
	}

	return newsList, nil
}

func scanNews(row rowScanner) (*models.News, error) {
	news := &models.News{}
	var publishDate models.NullDate
	err := row.Scan(
		&news.ID,
		&news.AdminID,
		&news.Title,
		&news.Description,
		&news.ImageURL,
		&news.NewsType,
		&publishDate,
		&news.Active,
		&news.CreatedAt,
		&news.UpdatedAt,
		&news.Version,
	)
	if err != nil {
		return nil, err
	}
	news.PublishDate = publishDate.Ptr()
	return news, nil
}

// nullableDate converts an optional date into a driver value
func nullableDate(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// escapeLike escapes the LIKE wildcards of a user supplied term
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
