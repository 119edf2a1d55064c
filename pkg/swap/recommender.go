// Package swap 提供换班推荐功能
// 员工请假或班次需要调整时，在现有排班的基础上评估可行的接替人选
package swap

import (
	"sort"

	"github.com/banbiao/banbiao/pkg/engine/compliance"
	"github.com/banbiao/banbiao/pkg/model"
)

// 换班方式
const (
	SwapTakeOver = "take_over" // 直接接管班次
	SwapExchange = "exchange"  // 与另一天的班次互换
)

// Recommendation 换班推荐
type Recommendation struct {
	Employee      model.Employee    `json:"employee"`
	Assignment    *model.Assignment `json:"assignment,omitempty"` // 互换时对方让出的班次
	Score         float64           `json:"score"`
	SwapType      string            `json:"swap_type"`
	Reason        string            `json:"reason"`
	ImpactSummary string            `json:"impact_summary"`
	Rank          int               `json:"rank"`
}

// Options 推荐选项
type Options struct {
	MaxRecommendations int      `json:"max_recommendations"`
	ExcludeEmployees   []string `json:"exclude_employees,omitempty"` // 排除的员工ID
	AllowExchange      bool     `json:"allow_exchange"`
	MinScore           float64  `json:"min_score"`
}

// DefaultOptions 返回默认选项
func DefaultOptions() *Options {
	return &Options{
		MaxRecommendations: 5,
		AllowExchange:      true,
		MinScore:           60,
	}
}

// Recommender 换班推荐器
type Recommender struct {
	doc *model.ConstraintDocument
}

// NewRecommender 创建换班推荐器
func NewRecommender(doc *model.ConstraintDocument) *Recommender {
	return &Recommender{doc: doc}
}

// Recommend 为一条排班推荐接替人选
// 候选人依次通过在岗、可用性、技能与合规四道检查，按得分降序返回
func (r *Recommender) Recommend(
	source model.Assignment,
	employees []model.Employee,
	schedule []model.Assignment,
	opts *Options,
) []Recommendation {
	if opts == nil {
		opts = DefaultOptions()
	}
	if opts.MaxRecommendations <= 0 {
		opts.MaxRecommendations = 5
	}

	exclude := make(map[string]bool, len(opts.ExcludeEmployees)+1)
	exclude[source.EmployeeID] = true
	for _, id := range opts.ExcludeEmployees {
		exclude[id] = true
	}

	hours := model.HoursByEmployee(schedule)
	avgHours := averageHours(hours)

	var candidates []Recommendation
	for i := range employees {
		emp := &employees[i]
		id := emp.ID.String()
		if exclude[id] {
			continue
		}
		if eval := r.evaluateTakeOver(source, emp, schedule, hours[id], avgHours); eval != nil && eval.Score >= opts.MinScore {
			candidates = append(candidates, *eval)
		}
		if opts.AllowExchange {
			candidates = append(candidates, r.exchangeCandidates(source, emp, schedule, opts.MinScore)...)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Employee.ID.String() < candidates[j].Employee.ID.String()
	})

	if len(candidates) > opts.MaxRecommendations {
		candidates = candidates[:opts.MaxRecommendations]
	}
	for i := range candidates {
		candidates[i].Rank = i + 1
	}
	return candidates
}

// FindBestMatch 为某员工某天的班次找到最佳接替人选
func (r *Recommender) FindBestMatch(
	employeeID, date string,
	employees []model.Employee,
	schedule []model.Assignment,
) *Recommendation {
	var source *model.Assignment
	for i := range schedule {
		if schedule[i].EmployeeID == employeeID && schedule[i].Date == date {
			source = &schedule[i]
			break
		}
	}
	if source == nil {
		return nil
	}

	recs := r.Recommend(*source, employees, schedule, &Options{
		MaxRecommendations: 1,
		MinScore:           50,
	})
	if len(recs) == 0 {
		return nil
	}
	return &recs[0]
}

// evaluateTakeOver 评估候选人直接接管班次
func (r *Recommender) evaluateTakeOver(
	source model.Assignment,
	emp *model.Employee,
	schedule []model.Assignment,
	empHours, avgHours float64,
) *Recommendation {
	if !r.eligible(source, emp, schedule) {
		return nil
	}

	report := compliance.Validate(reassign(schedule, source, emp), r.doc)
	critical, warning := countBySeverity(report, emp.ID.String())
	if critical > 0 {
		return nil
	}

	score := 100.0
	score -= float64(warning) * 15

	// 工时低于平均的候选人优先，换班同时改善公平性
	hoursAfter := empHours + source.WorkingHours()
	if avgHours > 0 && hoursAfter > avgHours {
		score -= (hoursAfter - avgHours) * 2
	}
	if score < 0 {
		score = 0
	}

	reason := "无约束冲突，可直接接管"
	if warning > 0 {
		reason = "存在少量软约束提醒"
	}

	return &Recommendation{
		Employee:      *emp,
		Score:         score,
		SwapType:      SwapTakeOver,
		Reason:        reason,
		ImpactSummary: impactSummary(empHours, hoursAfter, avgHours),
	}
}

// exchangeCandidates 评估候选人用另一天的班次互换
func (r *Recommender) exchangeCandidates(
	source model.Assignment,
	emp *model.Employee,
	schedule []model.Assignment,
	minScore float64,
) []Recommendation {
	id := emp.ID.String()

	var result []Recommendation
	for i := range schedule {
		other := schedule[i]
		if other.EmployeeID != id || other.Date == source.Date {
			continue
		}
		if !r.eligible(source, emp, schedule) {
			continue
		}

		report := compliance.Validate(exchange(schedule, source, other), r.doc)
		critical, warning := countBySeverity(report, id)
		if critical > 0 {
			continue
		}

		score := 90.0 - float64(warning)*15
		if score < minScore {
			continue
		}

		otherCopy := other
		result = append(result, Recommendation{
			Employee:      *emp,
			Assignment:    &otherCopy,
			Score:         score,
			SwapType:      SwapExchange,
			Reason:        "互换班次，双方工时保持平衡",
			ImpactSummary: "双方总工时不变",
		})
	}
	return result
}

// eligible 检查候选人能否承接这条班次
func (r *Recommender) eligible(source model.Assignment, emp *model.Employee, schedule []model.Assignment) bool {
	if !emp.Schedulable() {
		return false
	}
	day := model.Weekday(source.Date)
	if !emp.AvailableForWindow(day, source.StartTime, source.EndTime) {
		return false
	}
	for _, skill := range r.requiredSkills(source) {
		if !emp.HasSkill(skill) {
			return false
		}
	}
	// 当天已有班次的员工不能再接管
	id := emp.ID.String()
	for _, a := range schedule {
		if a.EmployeeID == id && a.Date == source.Date {
			return false
		}
	}
	return true
}

// requiredSkills 返回该班次角色的强制技能要求
func (r *Recommender) requiredSkills(source model.Assignment) []string {
	if r.doc == nil {
		return nil
	}
	for _, sr := range r.doc.SkillRequirements {
		if sr.IsMandatory && sr.Role == source.Role {
			return sr.RequiredSkills
		}
	}
	return nil
}

// reassign 生成一份候选人接管后的排班副本
func reassign(schedule []model.Assignment, source model.Assignment, emp *model.Employee) []model.Assignment {
	out := make([]model.Assignment, len(schedule))
	copy(out, schedule)
	for i := range out {
		if out[i].ID == source.ID {
			out[i].EmployeeID = emp.ID.String()
			out[i].EmployeeName = emp.Name
		}
	}
	return out
}

// exchange 生成一份双方互换后的排班副本
func exchange(schedule []model.Assignment, a, b model.Assignment) []model.Assignment {
	out := make([]model.Assignment, len(schedule))
	copy(out, schedule)
	for i := range out {
		switch out[i].ID {
		case a.ID:
			out[i].EmployeeID = b.EmployeeID
			out[i].EmployeeName = b.EmployeeName
		case b.ID:
			out[i].EmployeeID = a.EmployeeID
			out[i].EmployeeName = a.EmployeeName
		}
	}
	return out
}

// countBySeverity 统计合规报告中与候选人相关的违规
func countBySeverity(report *compliance.Report, employeeID string) (critical, warning int) {
	for _, v := range report.Violations {
		if v.EmployeeID != employeeID {
			continue
		}
		if v.Severity == model.SeverityCritical {
			critical++
		} else {
			warning++
		}
	}
	return critical, warning
}

func averageHours(hours map[string]float64) float64 {
	if len(hours) == 0 {
		return 0
	}
	var total float64
	for _, h := range hours {
		total += h
	}
	return total / float64(len(hours))
}

func impactSummary(before, after, avg float64) string {
	switch {
	case avg > 0 && after <= avg:
		return "候选人工时仍低于平均水平"
	case after-before <= 8:
		return "候选人工时增加合理"
	default:
		return "候选人工时明显增加"
	}
}
