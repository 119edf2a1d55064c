// Package solver 实现基于布尔决策变量的优化排班
// 每个 (员工, 日期, 班次模板) 三元组对应一个变量，硬约束直接编码在变量上，
// 在时间预算内用贪心初始解加局部搜索求解
package solver

import (
	"github.com/banbiao/banbiao/pkg/model"
)

// Variable 一个布尔决策变量的坐标
type Variable struct {
	Emp  int // 员工下标
	Date int // 日期下标
	Tmpl int // 模板下标
}

// Model 求解模型
// 变量集合在构建时完成剪枝：关闭日、可用性不符与角色不符的变量不会出现
type Model struct {
	Doc       *model.ConstraintDocument
	Employees []model.Employee
	Dates     []string
	Templates []model.ShiftTemplate

	Vars      []Variable
	byDate    [][]int          // 日期下标 -> 变量下标
	byEmpDate map[[2]int][]int // (员工, 日期) -> 变量下标

	openDays  []int   // 开放日的日期下标
	durations []float64
	isManager []bool
}

// Build 构建求解模型并完成变量剪枝
func Build(doc *model.ConstraintDocument, employees []model.Employee, dates []string) *Model {
	m := &Model{
		Doc:       doc,
		Employees: employees,
		Dates:     dates,
		Templates: doc.ActiveTemplates(),
		byDate:    make([][]int, len(dates)),
		byEmpDate: make(map[[2]int][]int),
	}

	m.durations = make([]float64, len(m.Templates))
	for i, t := range m.Templates {
		m.durations[i] = t.DurationHours()
	}
	m.isManager = make([]bool, len(employees))
	for i := range employees {
		m.isManager[i] = employees[i].IsManager()
	}

	for di, date := range dates {
		day := model.Weekday(date)
		oh := doc.HoursFor(day)
		if oh == nil || !oh.IsOpen {
			// 关闭日的变量全部强制为假，直接不生成
			continue
		}
		m.openDays = append(m.openDays, di)

		for ei := range employees {
			for ti, tmpl := range m.Templates {
				if !employees[ei].AvailableForWindow(day, tmpl.StartTime, tmpl.EndTime) {
					continue
				}
				if !qualifies(&employees[ei], tmpl, doc) {
					continue
				}
				vi := len(m.Vars)
				m.Vars = append(m.Vars, Variable{Emp: ei, Date: di, Tmpl: ti})
				m.byDate[di] = append(m.byDate[di], vi)
				key := [2]int{ei, di}
				m.byEmpDate[key] = append(m.byEmpDate[key], vi)
			}
		}
	}

	return m
}

// qualifies 员工是否可承担模板的任一角色槽位
// 模板含 general 槽位时对所有人开放；否则需持有所需角色（管理角色互通）
// 或满足对应角色的技能要求
func qualifies(emp *model.Employee, tmpl model.ShiftTemplate, doc *model.ConstraintDocument) bool {
	if len(tmpl.RequiredRoles) == 0 || tmpl.RequiredRoles[model.RoleGeneral] > 0 {
		return true
	}

	for role, count := range tmpl.RequiredRoles {
		if count <= 0 {
			continue
		}
		if emp.Role == role {
			return true
		}
		if (role == model.RoleManager || role == model.RoleAdministrator) && emp.IsManager() {
			return true
		}
		for _, req := range doc.SkillRequirements {
			if req.Role == role && len(req.RequiredSkills) > 0 && emp.HasAllSkills(req.RequiredSkills) {
				return true
			}
		}
	}
	return false
}

// OpenDays 开放日的日期下标
func (m *Model) OpenDays() []int {
	return m.openDays
}

// VarsOnDate 某日期的全部变量
func (m *Model) VarsOnDate(di int) []int {
	return m.byDate[di]
}

// VarsForEmpDate 某员工某日期的全部变量
func (m *Model) VarsForEmpDate(ei, di int) []int {
	return m.byEmpDate[[2]int{ei, di}]
}

// Duration 模板时长（小时）
func (m *Model) Duration(ti int) float64 {
	return m.durations[ti]
}

// IsManager 员工是否具有管理角色
func (m *Model) IsManager(ei int) bool {
	return m.isManager[ei]
}
