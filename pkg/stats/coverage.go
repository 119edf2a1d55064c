package stats

import (
	"sort"

	"github.com/banbiao/banbiao/pkg/model"
)

// CoverageMetrics 覆盖率指标
type CoverageMetrics struct {
	TotalOpenDays   int     `json:"total_open_days"`  // 周期内营业天数
	StaffedDays     int     `json:"staffed_days"`     // 达到最低人数的天数
	OverallCoverage float64 `json:"overall_coverage"` // 整体覆盖率 (%)

	DailyCoverage map[string]DayCoverage `json:"daily_coverage"` // 每日覆盖情况
	RoleCoverage  map[string]int         `json:"role_coverage"`  // 各岗位排班数
	HourlyStaff   map[int]float64        `json:"hourly_staff"`   // 营业时段平均在岗人数 (0-23)

	DemandSatisfaction float64 `json:"demand_satisfaction"` // 最低人力需求满足度 (%)

	UncoveredDays []string             `json:"uncovered_days,omitempty"` // 无任何排班的营业日
	Understaffed  []UnderstaffedPeriod `json:"understaffed,omitempty"`   // 人手不足的营业日
}

// DayCoverage 每日覆盖情况
type DayCoverage struct {
	Date         string  `json:"date"`
	Required     int     `json:"required"` // 当日最低人数
	MaxAllowed   int     `json:"max_allowed"`
	Staffed      int     `json:"staffed"` // 当日实际排班人数
	CoverageRate float64 `json:"coverage_rate"`
	TotalHours   float64 `json:"total_hours"`
}

// UnderstaffedPeriod 人手不足的营业日
type UnderstaffedPeriod struct {
	Date     string `json:"date"`
	Required int    `json:"required"`
	Staffed  int    `json:"staffed"`
	Shortage int    `json:"shortage"`
}

// CoverageAnalyzer 覆盖率分析器
// 以约束中的营业时间与人数要求为需求基线，衡量生成的排班满足程度
type CoverageAnalyzer struct{}

// NewCoverageAnalyzer 创建覆盖率分析器
func NewCoverageAnalyzer() *CoverageAnalyzer {
	return &CoverageAnalyzer{}
}

// Analyze 分析指定日期范围内排班对约束需求的覆盖情况
func (c *CoverageAnalyzer) Analyze(doc *model.ConstraintDocument, assignments []model.Assignment, dates []string) *CoverageMetrics {
	metrics := &CoverageMetrics{
		DailyCoverage: make(map[string]DayCoverage),
		RoleCoverage:  make(map[string]int),
		HourlyStaff:   make(map[int]float64),
	}
	if doc == nil || len(dates) == 0 {
		metrics.OverallCoverage = 100
		metrics.DemandSatisfaction = 100
		return metrics
	}

	byDate := make(map[string][]model.Assignment)
	for _, a := range assignments {
		byDate[a.Date] = append(byDate[a.Date], a)
		metrics.RoleCoverage[a.Role]++
	}

	totalRequired := 0
	totalSatisfied := 0
	hourTotals := make(map[int]int)
	openDayCount := 0

	for _, date := range dates {
		hours := doc.HoursFor(model.Weekday(date))
		if hours == nil || !hours.IsOpen {
			continue
		}
		openDayCount++
		metrics.TotalOpenDays++

		day := DayCoverage{
			Date:       date,
			Required:   hours.MinStaff,
			MaxAllowed: hours.MaxStaff,
		}

		staff := make(map[string]bool)
		for _, a := range byDate[date] {
			staff[a.EmployeeID] = true
			day.TotalHours += a.WorkingHours()
			c.accumulateHourly(hourTotals, a.StartTime, a.EndTime)
		}
		day.Staffed = len(staff)

		if day.Required > 0 {
			satisfied := day.Staffed
			if satisfied > day.Required {
				satisfied = day.Required
			}
			day.CoverageRate = float64(satisfied) / float64(day.Required) * 100
			totalRequired += day.Required
			totalSatisfied += satisfied
		} else {
			day.CoverageRate = 100
		}

		if day.Staffed >= day.Required {
			metrics.StaffedDays++
		} else {
			metrics.Understaffed = append(metrics.Understaffed, UnderstaffedPeriod{
				Date:     date,
				Required: day.Required,
				Staffed:  day.Staffed,
				Shortage: day.Required - day.Staffed,
			})
		}
		if day.Staffed == 0 && day.Required > 0 {
			metrics.UncoveredDays = append(metrics.UncoveredDays, date)
		}

		metrics.DailyCoverage[date] = day
	}

	if metrics.TotalOpenDays > 0 {
		metrics.OverallCoverage = float64(metrics.StaffedDays) / float64(metrics.TotalOpenDays) * 100
	} else {
		metrics.OverallCoverage = 100
	}
	if totalRequired > 0 {
		metrics.DemandSatisfaction = float64(totalSatisfied) / float64(totalRequired) * 100
	} else {
		metrics.DemandSatisfaction = 100
	}

	if openDayCount > 0 {
		for hour, total := range hourTotals {
			metrics.HourlyStaff[hour] = float64(total) / float64(openDayCount)
		}
	}

	sort.Strings(metrics.UncoveredDays)
	sort.Slice(metrics.Understaffed, func(i, j int) bool {
		return metrics.Understaffed[i].Date < metrics.Understaffed[j].Date
	})

	return metrics
}

// accumulateHourly 按小时累计在岗人数，跨午夜班次顺延到次日时段
func (c *CoverageAnalyzer) accumulateHourly(totals map[int]int, start, end string) {
	startHour := clockHour(start)
	endHour := clockHour(end)
	if endHour <= startHour {
		endHour += 24
	}
	for h := startHour; h < endHour; h++ {
		totals[h%24]++
	}
}
