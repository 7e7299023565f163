package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/studentserving/backend/internal/apperrors"
	"github.com/studentserving/backend/internal/models"
)

// certificateRepository implements certificate repository operations
type certificateRepository struct {
	db *sql.DB
}

// NewCertificateRepository creates a new certificate repository
func NewCertificateRepository(db *sql.DB) *certificateRepository {
	return &certificateRepository{
		db: db,
	}
}

const certificateColumns = `id, student_id, file_name, file_path, certificate_type, description, uploaded_at`

// Create inserts a new certificate record and sets its generated ID
func (r *certificateRepository) Create(ctx context.Context, certificate *models.Certificate) error {
	query := `
		INSERT INTO certificates (student_id, file_name, file_path, certificate_type, description, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		certificate.StudentID,
		certificate.FileName,
		certificate.FilePath,
		certificate.CertificateType,
		certificate.Description,
		certificate.UploadedAt,
	)
	if err != nil {
		return wrapDBError("create certificate", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return wrapDBError("get certificate id", err)
	}
	certificate.ID = id

	return nil
}

// GetByID retrieves a certificate by ID
func (r *certificateRepository) GetByID(ctx context.Context, id int64) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = ? LIMIT 1`

	certificate, err := scanCertificate(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: certificate with id %d", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return nil, wrapDBError("get certificate by id", err)
	}

	return certificate, nil
}

// GetByStudentID retrieves all certificates of a student, newest first
func (r *certificateRepository) GetByStudentID(ctx context.Context, studentID string) ([]models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE student_id = ? ORDER BY uploaded_at DESC, id DESC`
	return r.query(ctx, "get certificates by student", query, studentID)
}

// GetAll retrieves all certificates, newest first
func (r *certificateRepository) GetAll(ctx context.Context) ([]models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates ORDER BY uploaded_at DESC, id DESC`
	return r.query(ctx, "get all certificates", query)
}

// DeleteByID deletes a certificate by ID
func (r *certificateRepository) DeleteByID(ctx context.Context, id int64) error {
	query := `DELETE FROM certificates WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return wrapDBError("delete certificate", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapDBError("get rows affected", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: certificate with id %d", apperrors.ErrNotFound, id)
	}

	return nil
}

// GetFileNames returns the stored file names of all certificates
func (r *certificateRepository) GetFileNames(ctx context.Context) ([]string, error) {
	return queryStrings(ctx, r.db, "get certificate file names", `SELECT file_name FROM certificates`)
}

func (r *certificateRepository) query(ctx context.Context, op, query string, args ...any) ([]models.Certificate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(op, err)
	}
	defer rows.Close()

	certificates := []models.Certificate{}
	for rows.Next() {
		certificate, err := scanCertificate(rows)
		if err != nil {
			return nil, wrapDBError(op, err)
		}
		certificates = append(certificates, *certificate)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBError(op, err)
	}

	return certificates, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificate(row rowScanner) (*models.Certificate, error) {
	certificate := &models.Certificate{}
	err := row.Scan(
		&certificate.ID,
		&certificate.StudentID,
		&certificate.FileName,
		&certificate.FilePath,
		&certificate.CertificateType,
		&certificate.Description,
		&certificate.UploadedAt,
	)
	if err != nil {
		return nil, err
	}
	return certificate, nil
}

// queryStrings runs a single-column query and collects the values
func queryStrings(ctx context.Context, db *sql.DB, op, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapDBError(op, err)
	}
	defer rows.Close()

	values := []string{}
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, wrapDBError(op, err)
		}
		values = append(values, value)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBError(op, err)
	}

	return values, nil
}
