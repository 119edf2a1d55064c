package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banbiao/banbiao/pkg/model"
)

// ConstraintRepository 排班约束仓储
// 约束文档整体以JSONB存储，结构演进时无需迁移表
type ConstraintRepository struct {
	db DB
}

// NewConstraintRepository 创建约束仓储
func NewConstraintRepository(db DB) *ConstraintRepository {
	return &ConstraintRepository{db: db}
}

// Save 保存约束文档，已存在则整体覆盖
func (r *ConstraintRepository) Save(ctx context.Context, id uuid.UUID, doc *model.ConstraintDocument) error {
	if id == uuid.Nil {
		id = uuid.New()
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化约束失败: %w", err)
	}

	query := `
		INSERT INTO constraint_documents (id, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, id, payload, time.Now()); err != nil {
		return fmt.Errorf("保存约束失败: %w", err)
	}

	return nil
}

// GetByID 根据ID获取约束文档
func (r *ConstraintRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ConstraintDocument, error) {
	query := `SELECT payload FROM constraint_documents WHERE id = $1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询约束失败: %w", err)
	}

	doc := &model.ConstraintDocument{}
	if err := json.Unmarshal(payload, doc); err != nil {
		return nil, fmt.Errorf("解析约束失败: %w", err)
	}

	return doc, nil
}

// Latest 获取最近保存的约束文档
func (r *ConstraintRepository) Latest(ctx context.Context) (*model.ConstraintDocument, error) {
	query := `SELECT payload FROM constraint_documents ORDER BY updated_at DESC LIMIT 1`

	var payload []byte
	err := r.db.QueryRowContext(ctx, query).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("查询约束失败: %w", err)
	}

	doc := &model.ConstraintDocument{}
	if err := json.Unmarshal(payload, doc); err != nil {
		return nil, fmt.Errorf("解析约束失败: %w", err)
	}

	return doc, nil
}

// Delete 删除约束文档
func (r *ConstraintRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM constraint_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("删除约束失败: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("约束不存在")
	}

	return nil
}
