package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"inventory-audit/internal/domain"

	log "github.com/sirupsen/logrus"
)

const branchColumns = `id, name, address, city, state, phone, active, created_at, updated_at`

type postgresBranchRepository struct {
	db *sql.DB
}

func NewPostgresBranchRepository(db *sql.DB) *postgresBranchRepository {
	return &postgresBranchRepository{db: db}
}

func scanBranch(row rowScanner) (*domain.Branch, error) {
	var b domain.Branch
	err := row.Scan(
		&b.ID,
		&b.Name,
		&b.Address,
		&b.City,
		&b.State,
		&b.Phone,
		&b.Active,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *postgresBranchRepository) ListBranches(ctx context.Context, onlyActive bool) ([]domain.Branch, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + branchColumns + ` FROM branches ORDER BY name ASC`
	if onlyActive {
		query = `SELECT ` + branchColumns + ` FROM branches WHERE active = true ORDER BY name ASC`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := []domain.Branch{}
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		branches = append(branches, *b)
	}

	return branches, rows.Err()
}

func (r *postgresBranchRepository) GetByID(ctx context.Context, id int64) (*domain.Branch, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	b, err := scanBranch(r.db.QueryRowContext(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrBranchNotFound
	}
	if err != nil {
		log.WithError(err).WithField("branch_id", id).Error("Failed to get branch by ID")
		return nil, err
	}
	return b, nil
}

func (r *postgresBranchRepository) Create(ctx context.Context, req domain.CreateBranchRequest) (*domain.Branch, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `INSERT INTO branches (name, address, city, state, phone, active)
	          VALUES ($1, $2, $3, $4, $5, true)
	          RETURNING ` + branchColumns

	b, err := scanBranch(r.db.QueryRowContext(ctx, query,
		req.Name,
		req.Address,
		req.City,
		req.State,
		req.Phone,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrBranchNameExists
		}
		log.WithError(err).WithField("name", req.Name).Error("Failed to create branch")
		return nil, err
	}
	return b, nil
}

func (r *postgresBranchRepository) Update(ctx context.Context, id int64, req domain.UpdateBranchRequest) (*domain.Branch, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	setParts := []string{}
	args := []interface{}{}
	argPos := 1

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", argPos))
		args = append(args, *req.Name)
		argPos++
	}
	if req.Address != nil {
		setParts = append(setParts, fmt.Sprintf("address = $%d", argPos))
		args = append(args, *req.Address)
		argPos++
	}
	if req.City != nil {
		setParts = append(setParts, fmt.Sprintf("city = $%d", argPos))
		args = append(args, *req.City)
		argPos++
	}
	if req.State != nil {
		setParts = append(setParts, fmt.Sprintf("state = $%d", argPos))
		args = append(args, *req.State)
		argPos++
	}
	if req.Phone != nil {
		setParts = append(setParts, fmt.Sprintf("phone = $%d", argPos))
		args = append(args, *req.Phone)
		argPos++
	}
	if req.Active != nil {
		setParts = append(setParts, fmt.Sprintf("active = $%d", argPos))
		args = append(args, *req.Active)
		argPos++
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE branches SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(setParts, ", "), argPos, branchColumns)

	b, err := scanBranch(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, domain.ErrBranchNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrBranchNameExists
		}
		log.WithError(err).WithField("branch_id", id).Error("Failed to update branch")
		return nil, err
	}
	return b, nil
}

func (r *postgresBranchRepository) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM branches WHERE id = $1`, id)
	if err != nil {
		log.WithError(err).WithField("branch_id", id).Error("Failed to delete branch")
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return domain.ErrBranchNotFound
	}
	return nil
}
