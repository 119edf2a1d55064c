// Package constraints 提供开箱即用的约束文档预设
// 不同业态的典型排班规则，作为新约束文档的起点
package constraints

import (
	"time"

	"github.com/banbiao/banbiao/pkg/model"
)

// Preset 约束文档预设
type Preset struct {
	Scenario    string                    `json:"scenario"`
	Name        string                    `json:"name"`
	Description string                    `json:"description"`
	Document    *model.ConstraintDocument `json:"document"`
}

// GetPresets 返回全部预设
func GetPresets() []Preset {
	return []Preset{
		{
			Scenario:    "retail",
			Name:        "零售门店",
			Description: "周一至周日营业，早晚两班，周末人手加倍",
			Document:    retailDocument(),
		},
		{
			Scenario:    "restaurant",
			Name:        "餐饮门店",
			Description: "午晚高峰双班制，班次间休息要求较高",
			Document:    restaurantDocument(),
		},
		{
			Scenario:    "office",
			Name:        "办公室前台",
			Description: "工作日单班，周末不排班",
			Document:    officeDocument(),
		},
	}
}

// FindPreset 按场景名查找预设，未找到时返回nil
func FindPreset(scenario string) *Preset {
	for _, p := range GetPresets() {
		if p.Scenario == scenario {
			preset := p
			return &preset
		}
	}
	return nil
}

func retailDocument() *model.ConstraintDocument {
	hours := make([]model.OperatingHours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		minStaff, maxStaff := 2, 4
		if d == time.Saturday || d == time.Sunday {
			minStaff, maxStaff = 4, 8
		}
		hours[d] = model.OperatingHours{
			DayOfWeek: d,
			IsOpen:    true,
			OpenTime:  "09:00",
			CloseTime: "21:00",
			MinStaff:  minStaff,
			MaxStaff:  maxStaff,
		}
	}
	return &model.ConstraintDocument{
		Name:           "零售门店",
		OperatingHours: hours,
		ShiftTemplates: []model.ShiftTemplate{
			{Name: "早班", StartTime: "09:00", EndTime: "15:00", Kind: "morning", RequiredRoles: map[string]int{model.RoleGeneral: 1}, IsActive: true},
			{Name: "晚班", StartTime: "15:00", EndTime: "21:00", Kind: "evening", RequiredRoles: map[string]int{model.RoleGeneral: 1}, IsActive: true},
		},
		BreakRules: []model.BreakRule{
			{Type: "meal", RequiredAfterHours: 5, DurationMinutes: 30},
		},
		MaxConsecutiveDays:   6,
		MinRestHours:         11,
		MaxHoursPerWeek:      44,
		MinShiftHours:        4,
		MaxShiftHours:        10,
		OptimizationPriority: model.PriorityBalanceStaffing,
	}
}

func restaurantDocument() *model.ConstraintDocument {
	hours := make([]model.OperatingHours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d] = model.OperatingHours{
			DayOfWeek: d,
			IsOpen:    true,
			OpenTime:  "10:00",
			CloseTime: "22:00",
			MinStaff:  3,
			MaxStaff:  8,
		}
	}
	return &model.ConstraintDocument{
		Name:           "餐饮门店",
		OperatingHours: hours,
		ShiftTemplates: []model.ShiftTemplate{
			{Name: "午市班", StartTime: "10:00", EndTime: "16:00", Kind: "morning", RequiredRoles: map[string]int{model.RoleGeneral: 2}, IsActive: true},
			{Name: "晚市班", StartTime: "16:00", EndTime: "22:00", Kind: "evening", RequiredRoles: map[string]int{model.RoleGeneral: 2}, IsActive: true},
		},
		BreakRules: []model.BreakRule{
			{Type: "meal", RequiredAfterHours: 4, DurationMinutes: 30},
			{Type: "rest", RequiredAfterHours: 6, DurationMinutes: 15},
		},
		MaxConsecutiveDays:     6,
		MinRestHours:           12,
		MaxHoursPerWeek:        44,
		MinShiftHours:          4,
		MaxShiftHours:          10,
		RequireManagerCoverage: true,
		OptimizationPriority:   model.PriorityBalanceStaffing,
	}
}

func officeDocument() *model.ConstraintDocument {
	hours := make([]model.OperatingHours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d] = model.OperatingHours{
			DayOfWeek: d,
			IsOpen:    d >= time.Monday && d <= time.Friday,
			OpenTime:  "09:00",
			CloseTime: "18:00",
			MinStaff:  1,
			MaxStaff:  2,
		}
	}
	return &model.ConstraintDocument{
		Name:           "办公室前台",
		OperatingHours: hours,
		ShiftTemplates: []model.ShiftTemplate{
			{Name: "行政班", StartTime: "09:00", EndTime: "18:00", RequiredRoles: map[string]int{model.RoleGeneral: 1}, IsActive: true},
		},
		BreakRules: []model.BreakRule{
			{Type: "meal", RequiredAfterHours: 4, DurationMinutes: 60},
		},
		MaxConsecutiveDays:   5,
		MinRestHours:         12,
		MaxHoursPerWeek:      40,
		MinShiftHours:        8,
		MaxShiftHours:        9,
		OptimizationPriority: model.PriorityMinimizeCost,
	}
}
