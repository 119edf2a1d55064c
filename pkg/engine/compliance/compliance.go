// Package compliance 对最终排班做事后合规检查
// 检查仅作诊断参考，不会修改或丢弃任何排班
package compliance

import (
	"fmt"
	"sort"

	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
)

// 违规类型
const (
	ViolationInsufficientRest   = "insufficient_rest"
	ViolationOvertimeExceeded   = "overtime_exceeded"
	ViolationConsecutiveDays    = "consecutive_days_exceeded"
	ViolationShiftTooShort      = "shift_too_short"
	ViolationShiftTooLong       = "shift_too_long"
)

// Violation 一条合规违规
type Violation struct {
	Type       string  `json:"type"`
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date,omitempty"`
	Severity   string  `json:"severity"`
	Actual     float64 `json:"actual"`
	Limit      float64 `json:"limit"`
}

// Report 合规检查报告
type Report struct {
	IsCompliant    bool        `json:"is_compliant"`
	ViolationCount int         `json:"violation_count"`
	Violations     []Violation `json:"violations"`
	TotalSchedules int         `json:"total_schedules"`
	ComplianceRate float64     `json:"compliance_rate"`
}

// 提示类型
const (
	AdviceOutsideOperatingHours = "outside_operating_hours"
	AdviceClosedDay             = "closed_day"
	AdviceBreakRequired         = "break_required"
)

// Advisory 一条排班提示
// 提示不计入违规，仅提醒排班与营业时间或休息规则的偏差
type Advisory struct {
	Type       string `json:"type"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Message    string `json:"message"`
}

// Validate 重新推导每位员工的负载并检查各项规则
// 休息时长只比较相邻两天的收班与开班时刻，跨夜差值不做精确计算
func Validate(assignments []model.Assignment, doc *model.ConstraintDocument) *Report {
	report := &Report{IsCompliant: true, ComplianceRate: 100}
	if len(assignments) == 0 {
		return report
	}

	sorted := append([]model.Assignment(nil), assignments...)
	model.SortAssignments(sorted)

	type pattern struct {
		consecutive int
		weeklyHours float64
		lastDate    string
		lastEnd     string
	}
	patterns := make(map[string]*pattern)

	for _, a := range sorted {
		p, ok := patterns[a.EmployeeID]
		if !ok {
			p = &pattern{}
			patterns[a.EmployeeID] = p
		}

		if p.lastDate != "" && p.lastDate == model.PreviousDate(a.Date) {
			p.consecutive++

			lastEnd, err1 := model.ClockMinutes(p.lastEnd)
			start, err2 := model.ClockMinutes(a.StartTime)
			if err1 == nil && err2 == nil {
				rest := float64(24*60-lastEnd+start) / 60.0
				if rest < float64(doc.MinRestHours) {
					report.Violations = append(report.Violations, Violation{
						Type:       ViolationInsufficientRest,
						EmployeeID: a.EmployeeID,
						Date:       a.Date,
						Severity:   model.SeverityWarning,
						Actual:     rest,
						Limit:      float64(doc.MinRestHours),
					})
				}
			}
		} else if p.lastDate != a.Date {
			p.consecutive = 1
		}

		p.lastDate = a.Date
		p.lastEnd = a.EndTime
		p.weeklyHours += a.WorkingHours()

		hours := a.WorkingHours()
		if doc.MinShiftHours > 0 && hours < float64(doc.MinShiftHours) {
			report.Violations = append(report.Violations, Violation{
				Type:       ViolationShiftTooShort,
				EmployeeID: a.EmployeeID,
				Date:       a.Date,
				Severity:   model.SeverityWarning,
				Actual:     hours,
				Limit:      float64(doc.MinShiftHours),
			})
		}
		if doc.MaxShiftHours > 0 && hours > float64(doc.MaxShiftHours) {
			report.Violations = append(report.Violations, Violation{
				Type:       ViolationShiftTooLong,
				EmployeeID: a.EmployeeID,
				Date:       a.Date,
				Severity:   model.SeverityCritical,
				Actual:     hours,
				Limit:      float64(doc.MaxShiftHours),
			})
		}
	}

	empIDs := make([]string, 0, len(patterns))
	for id := range patterns {
		empIDs = append(empIDs, id)
	}
	sort.Strings(empIDs)

	for _, id := range empIDs {
		p := patterns[id]
		if doc.MaxHoursPerWeek > 0 && p.weeklyHours > doc.MaxHoursPerWeek {
			report.Violations = append(report.Violations, Violation{
				Type:       ViolationOvertimeExceeded,
				EmployeeID: id,
				Severity:   model.SeverityCritical,
				Actual:     p.weeklyHours,
				Limit:      doc.MaxHoursPerWeek,
			})
		}
		if doc.MaxConsecutiveDays > 0 && p.consecutive > doc.MaxConsecutiveDays {
			report.Violations = append(report.Violations, Violation{
				Type:       ViolationConsecutiveDays,
				EmployeeID: id,
				Severity:   model.SeverityWarning,
				Actual:     float64(p.consecutive),
				Limit:      float64(doc.MaxConsecutiveDays),
			})
		}
	}

	report.ViolationCount = len(report.Violations)
	report.IsCompliant = report.ViolationCount == 0
	report.TotalSchedules = len(assignments)
	report.ComplianceRate = float64(len(assignments)-report.ViolationCount) / float64(len(assignments)) * 100

	if !report.IsCompliant {
		logger.Warn().
			Int("violations", report.ViolationCount).
			Float64("compliance_rate", report.ComplianceRate).
			Msg("排班存在合规违规")
	}

	return report
}

// Advise 对每条排班做营业时间与休息规则的提示性检查
func Advise(assignments []model.Assignment, doc *model.ConstraintDocument) []Advisory {
	var advisories []Advisory

	for _, a := range assignments {
		day := model.Weekday(a.Date)
		oh := doc.HoursFor(day)
		switch {
		case oh == nil || !oh.IsOpen:
			advisories = append(advisories, Advisory{
				Type:       AdviceClosedDay,
				EmployeeID: a.EmployeeID,
				Date:       a.Date,
				Message:    fmt.Sprintf("%s 为非营业日", a.Date),
			})
		case !model.ClockCovers(oh.OpenTime, oh.CloseTime, a.StartTime, a.EndTime):
			advisories = append(advisories, Advisory{
				Type:       AdviceOutsideOperatingHours,
				EmployeeID: a.EmployeeID,
				Date:       a.Date,
				Message:    fmt.Sprintf("班次 %s-%s 超出营业时间 %s-%s", a.StartTime, a.EndTime, oh.OpenTime, oh.CloseTime),
			})
		}

		hours := a.WorkingHours()
		for _, br := range doc.BreakRules {
			if br.RequiredAfterHours > 0 && hours > br.RequiredAfterHours {
				advisories = append(advisories, Advisory{
					Type:       AdviceBreakRequired,
					EmployeeID: a.EmployeeID,
					Date:       a.Date,
					Message:    fmt.Sprintf("班次时长 %.1f 小时，需安排 %d 分钟 %s 休息", hours, br.DurationMinutes, br.Type),
				})
			}
		}
	}

	return advisories
}
