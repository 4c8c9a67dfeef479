package repository

import (
	"database/sql"
	"fmt"

	"civicfix/models"
)

// DepartmentRepository reads routing and SLA master data
type DepartmentRepository struct {
	db *sql.DB
}

// NewDepartmentRepository creates a new department repository
func NewDepartmentRepository(db *sql.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// GetByCode retrieves a department by its code
func (r *DepartmentRepository) GetByCode(code string) (*models.Department, error) {
	var d models.Department
	err := r.db.QueryRow(
		`SELECT code, name, head_user_id FROM departments WHERE code = ?`,
		code,
	).Scan(&d.Code, &d.Name, &d.HeadUserID)
	if err == sql.ErrNoRows {
		return nil, models.NewDomainError(models.ErrNotFound, "department %q not found", code)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &d, nil
}

// DepartmentForCategory resolves the department handling a category,
// falling back to the static mapping when the table has no row.
func (r *DepartmentRepository) DepartmentForCategory(category models.Category) (string, error) {
	var code string
	err := r.db.QueryRow(
		`SELECT department_code FROM category_departments WHERE category = ?`,
		category,
	).Scan(&code)
	if err == sql.ErrNoRows {
		if fallback, ok := models.DefaultDepartmentByCategory[category]; ok {
			return fallback, nil
		}
		return models.DefaultDepartmentByCategory[models.CategoryOther], nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve department for category: %w", err)
	}
	return code, nil
}

// SLADaysForCategory resolves the SLA day budget for a category. Returns
// (0, nil) when no policy row exists so callers can fall back to the AI
// decision or the static default table.
func (r *DepartmentRepository) SLADaysForCategory(category models.Category) (int, error) {
	var days int
	err := r.db.QueryRow(
		`SELECT days FROM sla_policies WHERE category = ?`,
		category,
	).Scan(&days)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get SLA policy: %w", err)
	}
	return days, nil
}

// StaffBelongsToDepartment checks the staff directory maintained by the
// (out-of-scope) master-data service.
func (r *DepartmentRepository) StaffBelongsToDepartment(staffID int64, departmentCode string) (bool, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM department_staff WHERE staff_id = ? AND department_code = ?`,
		staffID, departmentCode,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check staff membership: %w", err)
	}
	return n > 0, nil
}

// CommissionerID returns the municipal commissioner's user id from master
// data, or 0 when unset.
func (r *DepartmentRepository) CommissionerID() (int64, error) {
	var id int64
	err := r.db.QueryRow(
		`SELECT user_id FROM role_holders WHERE role = 'MUNICIPAL_COMMISSIONER' LIMIT 1`,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get commissioner: %w", err)
	}
	return id, nil
}

// AdminIDs lists admin user ids for pipeline-stall warnings
func (r *DepartmentRepository) AdminIDs() ([]int64, error) {
	rows, err := r.db.Query(`SELECT user_id FROM role_holders WHERE role = 'ADMIN'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan admin id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}
	return ids, nil
}
