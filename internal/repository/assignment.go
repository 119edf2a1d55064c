package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banbiao/banbiao/pkg/model"
)

// AssignmentRepository 排班结果仓储
type AssignmentRepository struct {
	db DB
}

// NewAssignmentRepository 创建排班结果仓储
func NewAssignmentRepository(db DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// SaveRun 保存一次生成运行的全部排班，批量插入
func (r *AssignmentRepository) SaveRun(ctx context.Context, runID uuid.UUID, assignments []model.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}

	now := time.Now()
	const cols = 15
	placeholders := make([]string, 0, len(assignments))
	args := make([]interface{}, 0, len(assignments)*cols)

	for i := range assignments {
		a := &assignments[i]
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		a.CreatedAt = now
		a.UpdatedAt = now

		base := i * cols
		slots := make([]string, cols)
		for j := 0; j < cols; j++ {
			slots[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(slots, ",")+")")
		args = append(args,
			a.ID, runID, a.EmployeeID, a.EmployeeName, a.Date,
			a.StartTime, a.EndTime, a.Role, a.Department, a.Location,
			a.TemplateName, a.Status, a.Note, a.CreatedAt, a.UpdatedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO assignments (
			id, run_id, employee_id, employee_name, date,
			start_time, end_time, role, department, location,
			template_name, status, note, created_at, updated_at
		) VALUES %s
	`, strings.Join(placeholders, ","))

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("保存排班失败: %w", err)
	}

	return nil
}

// ListByRun 获取一次生成运行的全部排班
func (r *AssignmentRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]model.Assignment, error) {
	query := `
		SELECT id, employee_id, employee_name, to_char(date, 'YYYY-MM-DD'),
			start_time, end_time, role, department, location,
			template_name, status, note, created_at, updated_at
		FROM assignments
		WHERE run_id = $1
		ORDER BY date, start_time, employee_id
	`

	return r.queryAssignments(ctx, query, runID)
}

// ListByDateRange 获取日期范围内的排班
func (r *AssignmentRepository) ListByDateRange(ctx context.Context, start, end string) ([]model.Assignment, error) {
	query := `
		SELECT id, employee_id, employee_name, to_char(date, 'YYYY-MM-DD'),
			start_time, end_time, role, department, location,
			template_name, status, note, created_at, updated_at
		FROM assignments
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, start_time, employee_id
	`

	return r.queryAssignments(ctx, query, start, end)
}

// ListByEmployee 获取员工在日期范围内的排班
func (r *AssignmentRepository) ListByEmployee(ctx context.Context, employeeID string, start, end string) ([]model.Assignment, error) {
	query := `
		SELECT id, employee_id, employee_name, to_char(date, 'YYYY-MM-DD'),
			start_time, end_time, role, department, location,
			template_name, status, note, created_at, updated_at
		FROM assignments
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, start_time
	`

	return r.queryAssignments(ctx, query, employeeID, start, end)
}

// UpdateStatus 更新单条排班状态
func (r *AssignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE assignments SET status = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("更新排班状态失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("排班不存在")
	}

	return nil
}

// DeleteRun 删除一次生成运行的全部排班
func (r *AssignmentRepository) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("删除排班失败: %w", err)
	}
	return nil
}

func (r *AssignmentRepository) queryAssignments(ctx context.Context, query string, args ...interface{}) ([]model.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("查询排班失败: %w", err)
	}
	defer rows.Close()

	var assignments []model.Assignment
	for rows.Next() {
		var a model.Assignment
		err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.EmployeeName, &a.Date,
			&a.StartTime, &a.EndTime, &a.Role, &a.Department, &a.Location,
			&a.TemplateName, &a.Status, &a.Note, &a.CreatedAt, &a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("扫描排班数据失败: %w", err)
		}
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}
