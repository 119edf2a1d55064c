package model

import "sort"

// 排班状态
const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Assignment 一条排班记录
// 员工、日期与时间窗的绑定，附带组织维度信息
type Assignment struct {
	BaseModel
	EmployeeID   string `json:"employee_id" db:"employee_id"`
	EmployeeName string `json:"employee_name" db:"employee_name"`
	Date         string `json:"date" db:"shift_date"` // YYYY-MM-DD
	StartTime    string `json:"start_time" db:"start_time"`
	EndTime      string `json:"end_time" db:"end_time"`
	Role         string `json:"role" db:"role"`
	Department   string `json:"department" db:"department"`
	Location     string `json:"location" db:"location"`
	TemplateName string `json:"template_name,omitempty" db:"template_name"`
	Status       string `json:"status" db:"status"`
	Note         string `json:"note,omitempty" db:"note"`
}

// WorkingHours 返回排班时长（小时）
func (a Assignment) WorkingHours() float64 {
	return HoursBetween(a.StartTime, a.EndTime)
}

// SortAssignments 按 (日期, 开始时刻, 结束时刻, 员工ID) 稳定排序
// 同一套输入产出的排班顺序可复现
func SortAssignments(assignments []Assignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		if a.EndTime != b.EndTime {
			return a.EndTime < b.EndTime
		}
		return a.EmployeeID < b.EmployeeID
	})
}

// HoursByEmployee 聚合每位员工的总时长
func HoursByEmployee(assignments []Assignment) map[string]float64 {
	totals := make(map[string]float64)
	for _, a := range assignments {
		totals[a.EmployeeID] += a.WorkingHours()
	}
	return totals
}

// CountByEmployee 聚合每位员工的排班次数
func CountByEmployee(assignments []Assignment) map[string]int {
	counts := make(map[string]int)
	for _, a := range assignments {
		counts[a.EmployeeID]++
	}
	return counts
}
