package conflict

import (
	"fmt"
	"sort"
	"time"

	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
)

// AppliedFix 一次已执行的自动修复
type AppliedFix struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

var priorityRank = map[string]int{
	model.SuggestionCritical: 0,
	model.SuggestionHigh:     1,
	model.SuggestionMedium:   2,
	model.SuggestionLow:      3,
}

// Resolve 在约束文档副本上应用报告中的可自动修复建议
// 按优先级从高到低执行；修复后调用方应重新运行检测确认残余冲突。
// 启用营业日属于经营决策，生成流程内不自动执行，
// 该建议保留在报告中，由 ApplySuggestions 的人工确认路径处理。
func Resolve(doc *model.ConstraintDocument, report *model.ConflictReport) (*model.ConstraintDocument, []AppliedFix) {
	var fixable []model.Suggestion
	for _, s := range report.Suggestions {
		if s.AutoFixable && s.Action != ActionEnableBusinessDays {
			fixable = append(fixable, s)
		}
	}
	return applySorted(doc, fixable)
}

// ApplySuggestions 在约束文档副本上应用给定的修复建议，含启用营业日
// 供运营方人工确认后的修复接口调用
func ApplySuggestions(doc *model.ConstraintDocument, suggestions []model.Suggestion) (*model.ConstraintDocument, []AppliedFix) {
	var fixable []model.Suggestion
	for _, s := range suggestions {
		if s.AutoFixable {
			fixable = append(fixable, s)
		}
	}
	return applySorted(doc, fixable)
}

func applySorted(doc *model.ConstraintDocument, fixable []model.Suggestion) (*model.ConstraintDocument, []AppliedFix) {
	fixed := doc.Clone()

	sort.SliceStable(fixable, func(i, j int) bool {
		return rank(fixable[i].Priority) < rank(fixable[j].Priority)
	})

	var applied []AppliedFix
	for _, s := range fixable {
		if fix := apply(fixed, s); fix != nil {
			applied = append(applied, *fix)
		}
	}

	for _, fix := range applied {
		logger.Info().
			Str("action", fix.Action).
			Str("priority", fix.Priority).
			Msg(fix.Description)
	}

	return fixed, applied
}

func rank(priority string) int {
	if r, ok := priorityRank[priority]; ok {
		return r
	}
	return len(priorityRank)
}

func apply(doc *model.ConstraintDocument, s model.Suggestion) *AppliedFix {
	switch s.Action {
	case ActionEnableBusinessDays:
		return enableBusinessDays(doc, s)
	case ActionReduceMinStaff:
		return adjustStaff(doc, s, "suggested_min", func(oh *model.OperatingHours, v int) string {
			old := oh.MinStaff
			oh.MinStaff = v
			return fmt.Sprintf("%s 最少人数 %d -> %d", dayNames[oh.DayOfWeek], old, v)
		})
	case ActionRaiseMaxStaff:
		return adjustStaff(doc, s, "suggested_max", func(oh *model.OperatingHours, v int) string {
			old := oh.MaxStaff
			oh.MaxStaff = v
			return fmt.Sprintf("%s 最多人数 %d -> %d", dayNames[oh.DayOfWeek], old, v)
		})
	case ActionWidenShiftDuration:
		v, ok := intParam(s.Params, "suggested_max")
		if !ok || v <= doc.MaxShiftHours {
			return nil
		}
		old := doc.MaxShiftHours
		doc.MaxShiftHours = v
		if doc.MinShiftHours > doc.MaxShiftHours {
			doc.MinShiftHours = doc.MaxShiftHours
		}
		return &AppliedFix{
			Action:      s.Action,
			Description: fmt.Sprintf("最大班次时长 %d -> %d 小时", old, v),
			Priority:    s.Priority,
		}
	case ActionRaiseConsecutiveCap:
		v, ok := intParam(s.Params, "suggested_value")
		if !ok || v <= doc.MaxConsecutiveDays {
			return nil
		}
		old := doc.MaxConsecutiveDays
		doc.MaxConsecutiveDays = v
		return &AppliedFix{
			Action:      s.Action,
			Description: fmt.Sprintf("连续工作天数上限 %d -> %d", old, v),
			Priority:    s.Priority,
		}
	}
	return nil
}

func enableBusinessDays(doc *model.ConstraintDocument, s model.Suggestion) *AppliedFix {
	days, ok := s.Params["days"].([]int)
	if !ok || len(days) == 0 {
		return nil
	}

	var enabled []string
	for _, d := range days {
		day := time.Weekday(d)
		oh := doc.HoursFor(day)
		if oh == nil {
			doc.OperatingHours = append(doc.OperatingHours, model.OperatingHours{
				DayOfWeek: day,
				IsOpen:    true,
				OpenTime:  "09:00",
				CloseTime: "17:00",
				MinStaff:  1,
				MaxStaff:  5,
			})
			enabled = append(enabled, dayNames[day])
			continue
		}
		if !oh.IsOpen {
			oh.IsOpen = true
			if oh.MinStaff <= 0 {
				oh.MinStaff = 1
			}
			if oh.MaxStaff < oh.MinStaff {
				oh.MaxStaff = 5
			}
			enabled = append(enabled, dayNames[day])
		}
	}
	if len(enabled) == 0 {
		return nil
	}
	return &AppliedFix{
		Action:      s.Action,
		Description: fmt.Sprintf("启用营业日: %v", enabled),
		Priority:    s.Priority,
	}
}

func adjustStaff(doc *model.ConstraintDocument, s model.Suggestion, key string, set func(*model.OperatingHours, int) string) *AppliedFix {
	day, okDay := intParam(s.Params, "day_of_week")
	v, okVal := intParam(s.Params, key)
	if !okDay || !okVal {
		return nil
	}
	oh := doc.HoursFor(time.Weekday(day))
	if oh == nil {
		return nil
	}
	return &AppliedFix{
		Action:      s.Action,
		Description: set(oh, v),
		Priority:    s.Priority,
	}
}

func intParam(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
