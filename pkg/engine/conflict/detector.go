// Package conflict 在求解前对约束文档做静态可行性分析
// 检测不可能满足的人员要求、缺失的营业日与不可达的可用性，并给出修复建议
package conflict

import (
	"fmt"
	"strings"
	"time"

	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
)

var dayNames = [...]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// 建议动作标识，供自动修复器识别
const (
	ActionEnableBusinessDays  = "enable_business_days"
	ActionReduceMinStaff      = "reduce_min_staff"
	ActionRaiseMaxStaff       = "raise_max_staff"
	ActionWidenShiftDuration  = "widen_shift_duration"
	ActionRaiseConsecutiveCap = "raise_consecutive_cap"
	ActionReviewAvailability  = "review_availability"
	ActionDefineSkills        = "define_skills"
)

// 自动修复的取值常量
const (
	suggestedConsecutiveCap = 3
	shiftDurationCeiling    = 12
)

// defaultOpenDays 启用默认营业日时使用的星期集合（周一至周五）
var defaultOpenDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// Detect 对约束文档与员工名单做静态分析
// 各项检查相互独立；报告的 CanProceed 仅受严重冲突影响
func Detect(doc *model.ConstraintDocument, employees []model.Employee) *model.ConflictReport {
	report := &model.ConflictReport{}

	active := activeEmployees(employees)
	open := doc.OpenDays()

	checkOpenDays(report, open)
	checkStaffing(report, open, len(active))
	checkShiftDuration(report, open, doc)
	checkAvailability(report, open, active)
	checkConsecutiveCap(report, doc)
	checkSkillDiversity(report, active)

	report.Finalize()

	if report.ConflictCount > 0 {
		logger.Debug().
			Int("critical", report.CriticalCount).
			Int("warning", report.WarningCount).
			Int("auto_fixable", report.AutoFixableCount).
			Msg("约束冲突检测完成")
	}

	return report
}

func activeEmployees(employees []model.Employee) []model.Employee {
	var active []model.Employee
	for _, e := range employees {
		if e.Schedulable() {
			active = append(active, e)
		}
	}
	return active
}

// checkOpenDays 没有任何开放日时排班完全不可能
func checkOpenDays(report *model.ConflictReport, open []model.OperatingHours) {
	if len(open) > 0 {
		return
	}
	report.Conflicts = append(report.Conflicts, model.Conflict{
		Type:        model.ConflictNoOpenDays,
		Severity:    model.SeverityCritical,
		Description: "没有任何星期被标记为营业日，无法生成排班",
		AutoFixable: true,
	})
	days := make([]int, 0, len(defaultOpenDays))
	for _, d := range defaultOpenDays {
		days = append(days, int(d))
	}
	report.Suggestions = append(report.Suggestions, model.Suggestion{
		ConflictType: model.ConflictNoOpenDays,
		Priority:     model.SuggestionCritical,
		Action:       ActionEnableBusinessDays,
		Description:  "启用周一至周五作为默认营业日",
		AutoFixable:  true,
		Params:       map[string]interface{}{"days": days},
	})
}

// checkStaffing 逐个开放日检查人员要求的可满足性
func checkStaffing(report *model.ConflictReport, open []model.OperatingHours, total int) {
	for _, oh := range open {
		day := dayNames[oh.DayOfWeek]

		if oh.MinStaff > total {
			suggested := total - 1
			if suggested < 1 {
				suggested = 1
			}
			if suggested > total {
				suggested = total
			}
			report.Conflicts = append(report.Conflicts, model.Conflict{
				Type:        model.ConflictInsufficientStaff,
				Severity:    model.SeverityCritical,
				Description: fmt.Sprintf("%s: 要求至少 %d 人，但在职员工仅 %d 人", day, oh.MinStaff, total),
				AutoFixable: true,
				Details:     map[string]interface{}{"day_of_week": int(oh.DayOfWeek)},
			})
			report.Suggestions = append(report.Suggestions, model.Suggestion{
				ConflictType: model.ConflictInsufficientStaff,
				Priority:     model.SuggestionHigh,
				Action:       ActionReduceMinStaff,
				Description:  fmt.Sprintf("将 %s 的最少人数从 %d 下调至 %d", day, oh.MinStaff, suggested),
				AutoFixable:  true,
				Params: map[string]interface{}{
					"day_of_week":   int(oh.DayOfWeek),
					"suggested_min": suggested,
				},
			})
		}

		if oh.MinStaff > oh.MaxStaff {
			suggested := oh.MinStaff
			if total > suggested {
				suggested = total
			}
			report.Conflicts = append(report.Conflicts, model.Conflict{
				Type:        model.ConflictStaffingBounds,
				Severity:    model.SeverityCritical,
				Description: fmt.Sprintf("%s: 最少人数 %d 超过最多人数 %d，约束自相矛盾", day, oh.MinStaff, oh.MaxStaff),
				AutoFixable: true,
				Details:     map[string]interface{}{"day_of_week": int(oh.DayOfWeek)},
			})
			report.Suggestions = append(report.Suggestions, model.Suggestion{
				ConflictType: model.ConflictStaffingBounds,
				Priority:     model.SuggestionCritical,
				Action:       ActionRaiseMaxStaff,
				Description:  fmt.Sprintf("将 %s 的最多人数上调至 %d", day, suggested),
				AutoFixable:  true,
				Params: map[string]interface{}{
					"day_of_week":   int(oh.DayOfWeek),
					"suggested_max": suggested,
				},
			})
		}
	}
}

// checkShiftDuration 营业时段超过最大班次时长会留下无法覆盖的缺口
func checkShiftDuration(report *model.ConflictReport, open []model.OperatingHours, doc *model.ConstraintDocument) {
	if len(open) == 0 || doc.MaxShiftHours <= 0 {
		return
	}
	span := int(open[0].SpanHours())
	if span <= doc.MaxShiftHours {
		return
	}
	suggested := span
	if suggested > shiftDurationCeiling {
		suggested = shiftDurationCeiling
	}
	report.Suggestions = append(report.Suggestions, model.Suggestion{
		ConflictType: "shift_duration_coverage",
		Priority:     model.SuggestionMedium,
		Action:       ActionWidenShiftDuration,
		Description:  fmt.Sprintf("营业时段 %d 小时超过最大班次时长 %d 小时，建议放宽至 %d 小时", span, doc.MaxShiftHours, suggested),
		AutoFixable:  true,
		Params:       map[string]interface{}{"suggested_max": suggested},
	})
}

// checkAvailability 找出可用性模式与所有开放日都不相交的员工
// 波及全员时升级为严重冲突
func checkAvailability(report *model.ConflictReport, open []model.OperatingHours, active []model.Employee) {
	if len(open) == 0 || len(active) == 0 {
		return
	}

	var unavailable []string
	for _, emp := range active {
		ok := false
		for _, oh := range open {
			if emp.AvailableOnDay(oh.DayOfWeek) {
				ok = true
				break
			}
		}
		if !ok {
			unavailable = append(unavailable, emp.Name)
		}
	}
	if len(unavailable) == 0 {
		return
	}

	severity := model.SeverityWarning
	priority := model.SuggestionMedium
	if len(unavailable) == len(active) {
		severity = model.SeverityCritical
		priority = model.SuggestionCritical
	}

	report.Conflicts = append(report.Conflicts, model.Conflict{
		Type:     model.ConflictAvailability,
		Severity: severity,
		Description: fmt.Sprintf("%d 名员工的可用性与所有营业日都不相交: %s",
			len(unavailable), strings.Join(unavailable, ", ")),
		AutoFixable: false,
		Details:     map[string]interface{}{"employees": unavailable},
	})
	report.Suggestions = append(report.Suggestions, model.Suggestion{
		ConflictType: model.ConflictAvailability,
		Priority:     priority,
		Action:       ActionReviewAvailability,
		Description:  "检查并更新相关员工的可用性设置，使其覆盖至少一个营业日",
		AutoFixable:  false,
	})
}

// checkConsecutiveCap 连续工作天数上限低于2天会把排班切得过碎
func checkConsecutiveCap(report *model.ConflictReport, doc *model.ConstraintDocument) {
	if doc.MaxConsecutiveDays >= 2 {
		return
	}
	report.Conflicts = append(report.Conflicts, model.Conflict{
		Type:        model.ConflictConsecutiveTooTight,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("连续工作天数上限 %d 过于严格，可能导致排班碎片化", doc.MaxConsecutiveDays),
		AutoFixable: true,
	})
	report.Suggestions = append(report.Suggestions, model.Suggestion{
		ConflictType: model.ConflictConsecutiveTooTight,
		Priority:     model.SuggestionLow,
		Action:       ActionRaiseConsecutiveCap,
		Description:  fmt.Sprintf("将连续工作天数上限从 %d 提高到 %d", doc.MaxConsecutiveDays, suggestedConsecutiveCap),
		AutoFixable:  true,
		Params:       map[string]interface{}{"suggested_value": suggestedConsecutiveCap},
	})
}

// checkSkillDiversity 全员既无技能也无角色时排班灵活性受限
func checkSkillDiversity(report *model.ConflictReport, active []model.Employee) {
	if len(active) == 0 {
		return
	}
	for _, emp := range active {
		if emp.Role != "" || len(emp.Skills) > 0 {
			return
		}
	}
	report.Conflicts = append(report.Conflicts, model.Conflict{
		Type:        model.ConflictNoSkillCoverage,
		Severity:    model.SeverityWarning,
		Description: "员工名单中没有任何技能或角色信息，可能限制班次分配",
		AutoFixable: false,
	})
	report.Suggestions = append(report.Suggestions, model.Suggestion{
		ConflictType: model.ConflictNoSkillCoverage,
		Priority:     model.SuggestionMedium,
		Action:       ActionDefineSkills,
		Description:  "为员工补充技能与角色信息以提高排班准确性",
		AutoFixable:  false,
	})
}
