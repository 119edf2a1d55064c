package solver

import (
	"github.com/banbiao/banbiao/pkg/model"
)

// 硬约束违反的惩罚权重，远大于任何目标函数取值
const hardPenalty = 1000.0

// Solution 一个候选解：被选中的变量下标集合
type Solution struct {
	Picks    []int
	Score    float64
	Feasible bool
}

// Clone 深拷贝候选解
func (s *Solution) Clone() *Solution {
	return &Solution{
		Picks:    append([]int(nil), s.Picks...),
		Score:    s.Score,
		Feasible: s.Feasible,
	}
}

// Evaluate 计算候选解的分数并回填可行性
// 分数越低越好；存在硬约束违反时不可行
func (m *Model) Evaluate(s *Solution) {
	violations := 0.0

	perEmpDay := make(map[[2]int]int)
	perDayEmps := make(map[int]map[int]bool)
	empHours := make(map[int]float64)
	empWorkDays := make(map[int]map[int]bool)

	for _, vi := range s.Picks {
		v := m.Vars[vi]
		perEmpDay[[2]int{v.Emp, v.Date}]++
		if perDayEmps[v.Date] == nil {
			perDayEmps[v.Date] = make(map[int]bool)
		}
		perDayEmps[v.Date][v.Emp] = true
		empHours[v.Emp] += m.Duration(v.Tmpl)
		if empWorkDays[v.Emp] == nil {
			empWorkDays[v.Emp] = make(map[int]bool)
		}
		empWorkDays[v.Emp][v.Date] = true
	}

	// 每员工每天至多一个班次
	for _, n := range perEmpDay {
		if n > 1 {
			violations += float64(n - 1)
		}
	}

	// 每个开放日的人数必须落在 [min, max]
	for _, di := range m.openDays {
		oh := m.Doc.HoursFor(model.Weekday(m.Dates[di]))
		n := len(perDayEmps[di])
		if n < oh.MinStaff {
			violations += float64(oh.MinStaff - n)
		}
		if n > oh.MaxStaff {
			violations += float64(n - oh.MaxStaff)
		}
	}

	// 连续工作天数滑动窗口
	window := m.Doc.MaxConsecutiveDays + 1
	if m.Doc.MaxConsecutiveDays > 0 && window <= len(m.Dates) {
		for _, days := range empWorkDays {
			for start := 0; start+window <= len(m.Dates); start++ {
				worked := 0
				for d := start; d < start+window; d++ {
					if days[d] {
						worked++
					}
				}
				if worked > m.Doc.MaxConsecutiveDays {
					violations += float64(worked - m.Doc.MaxConsecutiveDays)
				}
			}
		}
	}

	// 生成区间内的总时长不超过每周上限
	if m.Doc.MaxHoursPerWeek > 0 {
		for _, hours := range empHours {
			if hours > m.Doc.MaxHoursPerWeek {
				violations += (hours - m.Doc.MaxHoursPerWeek) / 8.0
			}
		}
	}

	// 管理覆盖：每个开放日的每个覆盖窗口内至少一名管理者
	if m.Doc.RequireManagerCoverage {
		violations += m.managerCoverageGaps(s)
	}

	s.Score = violations*hardPenalty + m.objective(perDayEmps, empWorkDays)
	s.Feasible = violations == 0
}

// managerCoverageGaps 统计缺少管理在场的覆盖窗口数
func (m *Model) managerCoverageGaps(s *Solution) float64 {
	windows := m.coverageWindows()
	if len(windows) == 0 {
		return 0
	}

	// 逐日收集管理者的在班区间
	managerSpans := make(map[int][][2]int)
	for _, vi := range s.Picks {
		v := m.Vars[vi]
		if !m.IsManager(v.Emp) {
			continue
		}
		managerSpans[v.Date] = append(managerSpans[v.Date], m.templateSpan(v.Tmpl))
	}

	gaps := 0.0
	for _, di := range m.openDays {
		spans := managerSpans[di]
		for _, w := range windows {
			covered := false
			for _, sp := range spans {
				if sp[0] < w[1] && w[0] < sp[1] {
					covered = true
					break
				}
			}
			if !covered {
				gaps++
			}
		}
	}
	return gaps
}

// coverageWindows 由含普通角色的模板得到的覆盖窗口集合
func (m *Model) coverageWindows() [][2]int {
	var windows [][2]int
	for ti, t := range m.Templates {
		if t.RequiredRoles[model.RoleEmployee] > 0 || t.RequiredRoles[model.RoleGeneral] > 0 {
			windows = append(windows, m.templateSpan(ti))
		}
	}
	return windows
}

func (m *Model) templateSpan(ti int) [2]int {
	start, _ := model.ClockMinutes(m.Templates[ti].StartTime)
	end, _ := model.ClockMinutes(m.Templates[ti].EndTime)
	if end < start {
		end += 24 * 60
	}
	return [2]int{start, end}
}

// objective 按优化目标计算软目标值
// fairness 最小化各员工班次数的极差；maximize_coverage 班次越多越好；
// minimize_cost 班次越少越好；balance_staffing 多人等同公平，单人等同覆盖
func (m *Model) objective(perDayEmps map[int]map[int]bool, empWorkDays map[int]map[int]bool) float64 {
	total := 0
	for _, emps := range perDayEmps {
		total += len(emps)
	}

	priority := m.Doc.OptimizationPriority
	if priority == model.PriorityBalanceStaffing {
		if len(m.Employees) >= 2 {
			priority = model.PriorityFairness
		} else {
			priority = model.PriorityMaximizeCoverage
		}
	}

	switch priority {
	case model.PriorityFairness:
		return m.countSpread(empWorkDays)
	case model.PriorityMaximizeCoverage:
		return -float64(total)
	case model.PriorityMinimizeCost:
		return float64(total)
	default:
		return m.countSpread(empWorkDays)
	}
}

// countSpread 各员工班次数的最大值与最小值之差
// 没有任何班次的员工按0计
func (m *Model) countSpread(empWorkDays map[int]map[int]bool) float64 {
	if len(m.Employees) == 0 {
		return 0
	}
	minCount, maxCount := -1, 0
	for ei := range m.Employees {
		n := len(empWorkDays[ei])
		if n > maxCount {
			maxCount = n
		}
		if minCount < 0 || n < minCount {
			minCount = n
		}
	}
	if minCount < 0 {
		minCount = 0
	}
	return float64(maxCount - minCount)
}
