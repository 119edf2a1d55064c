package model

import "fmt"

// 冲突严重级别
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// 建议优先级
const (
	SuggestionCritical = "critical"
	SuggestionHigh     = "high"
	SuggestionMedium   = "medium"
	SuggestionLow      = "low"
)

// 冲突类型
const (
	ConflictNoOpenDays          = "no_open_days"
	ConflictInsufficientStaff   = "insufficient_staff"
	ConflictStaffingBounds      = "staffing_bounds_inverted"
	ConflictAvailability        = "availability_mismatch"
	ConflictConsecutiveTooTight = "consecutive_days_too_tight"
	ConflictNoSkillCoverage     = "no_skill_coverage"
)

// Conflict 约束与员工数据之间的一处矛盾
type Conflict struct {
	Type        string                 `json:"type"`
	Severity    string                 `json:"severity"`
	Description string                 `json:"description"`
	AutoFixable bool                   `json:"auto_fixable"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Suggestion 针对冲突的修复建议
type Suggestion struct {
	ConflictType string                 `json:"conflict_type"`
	Priority     string                 `json:"priority"`
	Action       string                 `json:"action"`
	Description  string                 `json:"description"`
	AutoFixable  bool                   `json:"auto_fixable"`
	Params       map[string]interface{} `json:"params,omitempty"`
}

// ConflictReport 冲突检测的完整结论
type ConflictReport struct {
	Conflicts        []Conflict   `json:"conflicts"`
	Suggestions      []Suggestion `json:"suggestions"`
	ConflictCount    int          `json:"conflict_count"`
	CriticalCount    int          `json:"critical_count"`
	WarningCount     int          `json:"warning_count"`
	AutoFixableCount int          `json:"auto_fixable_count"`
	CanProceed       bool         `json:"can_proceed"`
	Summary          string       `json:"summary"`
}

// Finalize 汇总计数并生成概要
// can_proceed 仅取决于是否存在 critical 冲突
func (r *ConflictReport) Finalize() {
	r.ConflictCount = len(r.Conflicts)
	r.CriticalCount = 0
	r.WarningCount = 0
	r.AutoFixableCount = 0
	for _, c := range r.Conflicts {
		switch c.Severity {
		case SeverityCritical:
			r.CriticalCount++
		case SeverityWarning:
			r.WarningCount++
		}
		if c.AutoFixable {
			r.AutoFixableCount++
		}
	}
	r.CanProceed = r.CriticalCount == 0

	if r.ConflictCount == 0 {
		r.Summary = "未检测到冲突，约束配置可直接用于排班"
	} else {
		r.Summary = fmt.Sprintf("检测到 %d 个冲突（严重 %d，警告 %d），其中 %d 个可自动修复",
			r.ConflictCount, r.CriticalCount, r.WarningCount, r.AutoFixableCount)
	}
}

// HasCritical 是否存在严重冲突
func (r *ConflictReport) HasCritical() bool {
	for _, c := range r.Conflicts {
		if c.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
