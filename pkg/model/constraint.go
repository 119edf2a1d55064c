// Package model 定义排班生成引擎的核心数据模型
package model

import (
	"fmt"
	"time"
)

// OptimizationPriority 优化目标
type OptimizationPriority string

const (
	PriorityFairness         OptimizationPriority = "fairness"          // 班次分布尽量均衡
	PriorityMinimizeCost     OptimizationPriority = "minimize_cost"     // 最少排班
	PriorityMaximizeCoverage OptimizationPriority = "maximize_coverage" // 最多排班
	PriorityBalanceStaffing  OptimizationPriority = "balance_staffing"  // 默认：多人取公平，单人取覆盖
)

// OperatingHours 单个星期几的营业时间与人员要求
type OperatingHours struct {
	DayOfWeek time.Weekday `json:"day_of_week"` // 周日=0
	IsOpen    bool         `json:"is_open"`
	OpenTime  string       `json:"open_time"`  // HH:MM
	CloseTime string       `json:"close_time"` // HH:MM
	MinStaff  int          `json:"min_staff"`
	MaxStaff  int          `json:"max_staff"`
}

// SpanHours 返回营业时长（小时）
func (oh OperatingHours) SpanHours() float64 {
	return HoursBetween(oh.OpenTime, oh.CloseTime)
}

// 班次模板类型标签
const (
	ShiftKindOpening  = "opening_shift"
	ShiftKindMid      = "mid_shift"
	ShiftKindClosing  = "closing_shift"
	ShiftKindFullDay  = "full_day"
	ShiftKindManager  = "manager_shift"
	ShiftKindStandard = "standard"
)

// ShiftTemplate 班次模板
// 由 (开始时刻, 结束时刻, 角色需求) 组成的可复用模式
type ShiftTemplate struct {
	Name          string         `json:"name"`
	StartTime     string         `json:"start_time"` // HH:MM
	EndTime       string         `json:"end_time"`   // HH:MM
	Kind          string         `json:"kind,omitempty"`
	RequiredRoles map[string]int `json:"required_roles"`
	IsActive      bool           `json:"is_active"`
}

// DurationHours 返回班次时长（小时）
func (t ShiftTemplate) DurationHours() float64 {
	return HoursBetween(t.StartTime, t.EndTime)
}

// RequiresManager 检查模板是否要求管理角色
func (t ShiftTemplate) RequiresManager() bool {
	return t.RequiredRoles[RoleManager] > 0 || t.RequiredRoles[RoleAdministrator] > 0
}

// RoleSlots 将角色需求展开为按角色轮转的槽位列表
func (t ShiftTemplate) RoleSlots() []string {
	var slots []string
	// map 遍历无序，固定角色顺序保证确定性
	for _, role := range []string{RoleManager, RoleAdministrator, RoleEmployee, RoleGeneral} {
		for i := 0; i < t.RequiredRoles[role]; i++ {
			slots = append(slots, role)
		}
	}
	for role, count := range t.RequiredRoles {
		switch role {
		case RoleManager, RoleAdministrator, RoleEmployee, RoleGeneral:
			continue
		}
		for i := 0; i < count; i++ {
			slots = append(slots, role)
		}
	}
	if len(slots) == 0 {
		slots = []string{RoleGeneral}
	}
	return slots
}

// BreakRule 休息规则
type BreakRule struct {
	Type               string  `json:"type"` // rest/meal
	RequiredAfterHours float64 `json:"required_after_hours"`
	DurationMinutes    int     `json:"duration_minutes"`
}

// SkillRequirement 技能要求（按角色）
type SkillRequirement struct {
	Role           string   `json:"role"`
	RequiredSkills []string `json:"required_skills"`
	IsMandatory    bool     `json:"is_mandatory"`
}

// ConstraintDocument 排班约束文档
// 一次生成运行的全部规则输入，引擎只读；规范化与自动修复在副本上进行
type ConstraintDocument struct {
	BaseModel
	Name string `json:"name" db:"name"`

	OperatingHours    []OperatingHours   `json:"operating_hours"`
	ShiftTemplates    []ShiftTemplate    `json:"shift_templates"`
	BreakRules        []BreakRule        `json:"break_rules,omitempty"`
	SkillRequirements []SkillRequirement `json:"skill_requirements,omitempty"`

	MaxConsecutiveDays int     `json:"max_consecutive_days"`
	MinRestHours       int     `json:"min_rest_hours_between_shifts"`
	MaxHoursPerWeek    float64 `json:"max_hours_per_week"`
	MinShiftHours      int     `json:"min_consecutive_hours_per_shift"`
	MaxShiftHours      int     `json:"max_consecutive_hours_per_shift"`

	OptimizationPriority   OptimizationPriority `json:"optimization_priority"`
	RequireManagerCoverage bool                 `json:"require_manager_coverage"`

	Locations   []string `json:"locations"`
	Departments []string `json:"departments"`
	Roles       []string `json:"roles"`
}

// HoursFor 返回某星期几的营业时间记录
func (d *ConstraintDocument) HoursFor(day time.Weekday) *OperatingHours {
	for i := range d.OperatingHours {
		if d.OperatingHours[i].DayOfWeek == day {
			return &d.OperatingHours[i]
		}
	}
	return nil
}

// OpenDays 返回所有开放的营业时间记录
func (d *ConstraintDocument) OpenDays() []OperatingHours {
	var open []OperatingHours
	for _, oh := range d.OperatingHours {
		if oh.IsOpen {
			open = append(open, oh)
		}
	}
	return open
}

// ActiveTemplates 返回启用的班次模板
func (d *ConstraintDocument) ActiveTemplates() []ShiftTemplate {
	var active []ShiftTemplate
	for _, t := range d.ShiftTemplates {
		if t.IsActive {
			active = append(active, t)
		}
	}
	return active
}

// Clone 深拷贝约束文档
// 自动修复与约束放松在副本上变更，保持调用方输入不变
func (d *ConstraintDocument) Clone() *ConstraintDocument {
	clone := *d

	clone.OperatingHours = make([]OperatingHours, len(d.OperatingHours))
	copy(clone.OperatingHours, d.OperatingHours)

	clone.ShiftTemplates = make([]ShiftTemplate, len(d.ShiftTemplates))
	for i, t := range d.ShiftTemplates {
		ct := t
		ct.RequiredRoles = make(map[string]int, len(t.RequiredRoles))
		for k, v := range t.RequiredRoles {
			ct.RequiredRoles[k] = v
		}
		clone.ShiftTemplates[i] = ct
	}

	clone.BreakRules = append([]BreakRule(nil), d.BreakRules...)

	clone.SkillRequirements = make([]SkillRequirement, len(d.SkillRequirements))
	for i, sr := range d.SkillRequirements {
		csr := sr
		csr.RequiredSkills = append([]string(nil), sr.RequiredSkills...)
		clone.SkillRequirements[i] = csr
	}

	clone.Locations = append([]string(nil), d.Locations...)
	clone.Departments = append([]string(nil), d.Departments...)
	clone.Roles = append([]string(nil), d.Roles...)

	return &clone
}

// Validate 检查约束文档的结构不变量
func (d *ConstraintDocument) Validate() error {
	if len(d.OperatingHours) != 7 {
		return fmt.Errorf("营业时间必须包含7天记录，当前 %d 天", len(d.OperatingHours))
	}

	seen := make(map[time.Weekday]bool, 7)
	for _, oh := range d.OperatingHours {
		if oh.DayOfWeek < 0 || oh.DayOfWeek > 6 {
			return fmt.Errorf("无效星期值: %d", oh.DayOfWeek)
		}
		if seen[oh.DayOfWeek] {
			return fmt.Errorf("星期 %d 存在重复记录", oh.DayOfWeek)
		}
		seen[oh.DayOfWeek] = true

		if oh.MinStaff > oh.MaxStaff {
			return fmt.Errorf("星期 %d 最小人数 %d 超过最大人数 %d", oh.DayOfWeek, oh.MinStaff, oh.MaxStaff)
		}
	}

	if d.MinShiftHours > d.MaxShiftHours {
		return fmt.Errorf("最小班次时长 %d 超过最大班次时长 %d", d.MinShiftHours, d.MaxShiftHours)
	}

	return nil
}
