// Package model 定义排班生成引擎的核心数据模型
package model

import (
	"time"
)

// 角色常量（开放集合，引擎只对以下值有特殊语义）
const (
	RoleEmployee      = "employee"
	RoleManager       = "manager"
	RoleAdministrator = "administrator"
	RoleGeneral       = "general"
)

// Employee 员工
// 引擎将其视为一次生成运行期间的只读快照
type Employee struct {
	BaseModel
	Name       string `json:"name" db:"name"`
	Role       string `json:"role" db:"role"`
	Department string `json:"department" db:"department"`
	Location   string `json:"location" db:"location"`

	Skills       []string           `json:"skills" db:"skills"`
	Availability []AvailabilitySlot `json:"availability,omitempty" db:"availability"`

	IsActive   bool `json:"is_active" db:"is_active"`
	Anonymized bool `json:"anonymized" db:"anonymized"`
}

// AvailabilitySlot 每周可用性模式中的一项
type AvailabilitySlot struct {
	DayOfWeek   time.Weekday `json:"day_of_week"` // 周日=0
	StartTime   string       `json:"start_time"`  // HH:MM
	EndTime     string       `json:"end_time"`    // HH:MM
	IsAvailable bool         `json:"is_available"`
}

// Schedulable 检查员工是否可参与排班
func (e *Employee) Schedulable() bool {
	return e.IsActive && !e.Anonymized
}

// IsManager 检查员工是否具有管理职责
func (e *Employee) IsManager() bool {
	return e.Role == RoleManager || e.Role == RoleAdministrator
}

// HasSkill 检查员工是否具备某技能
func (e *Employee) HasSkill(skill string) bool {
	for _, s := range e.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// HasAllSkills 检查员工是否具备全部技能
func (e *Employee) HasAllSkills(skills []string) bool {
	for _, s := range skills {
		if !e.HasSkill(s) {
			return false
		}
	}
	return true
}

// AvailableOnDay 检查员工在某个星期几是否可用
// 未声明可用性模式的员工视为随时可用；该日无记录时同样视为可用
func (e *Employee) AvailableOnDay(day time.Weekday) bool {
	for _, slot := range e.Availability {
		if slot.DayOfWeek == day {
			return slot.IsAvailable
		}
	}
	return true
}

// AvailableForWindow 检查员工在某星期几的时间窗是否可用
// 时间窗必须完整落在某条可用记录内；声明了模式但该日无记录视为不可用
func (e *Employee) AvailableForWindow(day time.Weekday, start, end string) bool {
	if len(e.Availability) == 0 {
		return true
	}

	for _, slot := range e.Availability {
		if slot.DayOfWeek != day {
			continue
		}
		if !slot.IsAvailable {
			continue
		}
		if ClockCovers(slot.StartTime, slot.EndTime, start, end) {
			return true
		}
	}
	return false
}
