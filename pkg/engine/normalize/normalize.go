// Package normalize 负责约束文档的规范化
// 补齐缺失的营业日、按营业时间生成班次模板，并填充默认的组织维度
package normalize

import (
	"sort"
	"time"

	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
)

// 缺省取值
const (
	DefaultMaxConsecutiveDays = 6
	DefaultMinRestHours       = 8
	DefaultMaxHoursPerWeek    = 40
	DefaultMinShiftHours      = 4
	DefaultMaxShiftHours      = 12
)

var (
	defaultLocations   = []string{"Main Office"}
	defaultDepartments = []string{"Operations"}
	defaultRoles       = []string{model.RoleGeneral}
)

// Normalize 返回约束文档的规范化副本
// 对已规范化的文档再次调用是幂等的；输入文档不被修改
func Normalize(doc *model.ConstraintDocument) *model.ConstraintDocument {
	out := doc.Clone()

	fillOperatingHours(out)
	fillDefaults(out)

	if len(out.ActiveTemplates()) == 0 {
		out.ShiftTemplates = synthesizeTemplates(out)
	}

	return out
}

// fillOperatingHours 补齐缺失的星期记录为关闭日
// 已提供的记录原样保留
func fillOperatingHours(doc *model.ConstraintDocument) {
	present := make(map[time.Weekday]bool, len(doc.OperatingHours))
	for _, oh := range doc.OperatingHours {
		present[oh.DayOfWeek] = true
	}

	filled := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if present[d] {
			continue
		}
		doc.OperatingHours = append(doc.OperatingHours, model.OperatingHours{
			DayOfWeek: d,
			IsOpen:    false,
			OpenTime:  "09:00",
			CloseTime: "17:00",
			MinStaff:  0,
			MaxStaff:  0,
		})
		filled++
	}

	sort.Slice(doc.OperatingHours, func(i, j int) bool {
		return doc.OperatingHours[i].DayOfWeek < doc.OperatingHours[j].DayOfWeek
	})

	if filled > 0 {
		logger.Debug().
			Int("filled", filled).
			Msg("补齐缺失的营业日记录")
	}
}

// fillDefaults 填充数值与组织维度的默认值
func fillDefaults(doc *model.ConstraintDocument) {
	if doc.MaxConsecutiveDays <= 0 {
		doc.MaxConsecutiveDays = DefaultMaxConsecutiveDays
	}
	if doc.MinRestHours <= 0 {
		doc.MinRestHours = DefaultMinRestHours
	}
	if doc.MaxHoursPerWeek <= 0 {
		doc.MaxHoursPerWeek = DefaultMaxHoursPerWeek
	}
	if doc.MinShiftHours <= 0 {
		doc.MinShiftHours = DefaultMinShiftHours
	}
	if doc.MaxShiftHours <= 0 {
		doc.MaxShiftHours = DefaultMaxShiftHours
	}
	if doc.MaxShiftHours < doc.MinShiftHours {
		doc.MaxShiftHours = doc.MinShiftHours
	}
	if doc.OptimizationPriority == "" {
		doc.OptimizationPriority = model.PriorityBalanceStaffing
	}

	if len(doc.Locations) == 0 {
		doc.Locations = append([]string(nil), defaultLocations...)
	}
	if len(doc.Departments) == 0 {
		doc.Departments = append([]string(nil), defaultDepartments...)
	}
	if len(doc.Roles) == 0 {
		doc.Roles = append([]string(nil), defaultRoles...)
	}
}

// synthesizeTemplates 在没有可用模板时从营业时间生成班次模板
// 以第一个开放日为基准；全周关闭时退回标准模板
func synthesizeTemplates(doc *model.ConstraintDocument) []model.ShiftTemplate {
	open := doc.OpenDays()
	if len(open) == 0 {
		return []model.ShiftTemplate{{
			Name:          "Standard Shift",
			StartTime:     "09:00",
			EndTime:       "17:00",
			Kind:          model.ShiftKindStandard,
			RequiredRoles: map[string]int{model.RoleGeneral: 1},
			IsActive:      true,
		}}
	}

	ref := open[0]
	templates := BuildCoveragePlan(ref, doc.MinShiftHours, doc.MaxShiftHours, doc.RequireManagerCoverage)

	logger.Info().
		Int("templates", len(templates)).
		Str("open", ref.OpenTime).
		Str("close", ref.CloseTime).
		Msg("从营业时间生成班次模板")

	return templates
}
