// Package model 定义排班生成引擎的核心数据模型
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// BaseModel 基础模型（包含通用字段）
type BaseModel struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`
}

// NewBaseModel 创建新的基础模型
func NewBaseModel() BaseModel {
	now := time.Now()
	return BaseModel{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// DateRange 日期范围
type DateRange struct {
	StartDate string `json:"start_date"` // YYYY-MM-DD
	EndDate   string `json:"end_date"`   // YYYY-MM-DD
}

// Days 返回范围内的所有日期（含两端）
func (dr DateRange) Days() []string {
	start, err1 := time.Parse("2006-01-02", dr.StartDate)
	end, err2 := time.Parse("2006-01-02", dr.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format("2006-01-02"))
	}
	return days
}

// Weekday 返回日期对应的星期（周日=0）
func Weekday(date string) time.Weekday {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Sunday
	}
	return t.Weekday()
}

// PreviousDate 获取前一天日期
func PreviousDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format("2006-01-02")
}

// ClockMinutes 将 HH:MM 转换为自零点起的分钟数
func ClockMinutes(clock string) (int, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return 0, fmt.Errorf("无效时刻 %q: %w", clock, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinutesClock 将自零点起的分钟数转换为 HH:MM
func MinutesClock(minutes int) string {
	minutes %= 24 * 60
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// HoursBetween 计算两个 HH:MM 时刻之间的小时数
// 结束时刻早于开始时刻视为跨天班次
func HoursBetween(start, end string) float64 {
	s, err1 := ClockMinutes(start)
	e, err2 := ClockMinutes(end)
	if err1 != nil || err2 != nil {
		return 0
	}
	if e < s {
		e += 24 * 60
	}
	return float64(e-s) / 60.0
}

// ClockCovers 检查 [outerStart, outerEnd] 是否完整覆盖 [start, end]
func ClockCovers(outerStart, outerEnd, start, end string) bool {
	return outerStart <= start && end <= outerEnd
}
