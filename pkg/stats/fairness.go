// Package stats 提供排班统计分析功能
package stats

import (
	"math"
	"sort"
	"time"

	"github.com/banbiao/banbiao/pkg/model"
)

// FairnessMetrics 公平性指标
type FairnessMetrics struct {
	// 工时公平性
	WorkloadGini        float64 `json:"workload_gini"`          // 工时基尼系数 (0=完全公平, 1=完全不公平)
	WorkloadVariance    float64 `json:"workload_variance"`      // 工时方差
	WorkloadStdDev      float64 `json:"workload_std_dev"`       // 工时标准差
	AvgHoursPerEmployee float64 `json:"avg_hours_per_employee"` // 人均工时
	MaxHours            float64 `json:"max_hours"`              // 最大工时
	MinHours            float64 `json:"min_hours"`              // 最小工时
	HoursRange          float64 `json:"hours_range"`            // 工时极差

	// 班次类型公平性
	ShiftTypeDistribution map[string]float64 `json:"shift_type_distribution"` // 各班次类型分布
	NightShiftGini        float64            `json:"night_shift_gini"`        // 夜班分配基尼系数
	WeekendShiftGini      float64            `json:"weekend_shift_gini"`      // 周末班分配基尼系数

	// 员工级别统计
	EmployeeStats []EmployeeStat `json:"employee_stats"`

	// 综合评分
	OverallFairnessScore float64 `json:"overall_fairness_score"` // 综合公平性评分 (0-100)
}

// EmployeeStat 员工统计
type EmployeeStat struct {
	EmployeeID    string  `json:"employee_id"`
	EmployeeName  string  `json:"employee_name"`
	TotalHours    float64 `json:"total_hours"`
	ShiftCount    int     `json:"shift_count"`
	NightShifts   int     `json:"night_shifts"`
	WeekendShifts int     `json:"weekend_shifts"`
	OvertimeHours float64 `json:"overtime_hours"`
	Deviation     float64 `json:"deviation"` // 与平均值的偏差百分比
}

// FairnessAnalyzer 公平性分析器
type FairnessAnalyzer struct {
	standardWeeklyHours float64 // 标准周工时
	nightShiftStart     int     // 夜班开始时间（小时）
	nightShiftEnd       int     // 夜班结束时间（小时）
}

// NewFairnessAnalyzer 创建公平性分析器
func NewFairnessAnalyzer() *FairnessAnalyzer {
	return &FairnessAnalyzer{
		standardWeeklyHours: 40.0,
		nightShiftStart:     22,
		nightShiftEnd:       6,
	}
}

// SetStandardWeeklyHours 按约束中的每周工时上限校准加班统计
func (f *FairnessAnalyzer) SetStandardWeeklyHours(hours float64) {
	if hours > 0 {
		f.standardWeeklyHours = hours
	}
}

// Analyze 分析排班公平性
func (f *FairnessAnalyzer) Analyze(assignments []model.Assignment, employees []model.Employee) *FairnessMetrics {
	if len(assignments) == 0 || len(employees) == 0 {
		return &FairnessMetrics{
			ShiftTypeDistribution: make(map[string]float64),
			OverallFairnessScore:  100,
		}
	}

	employeeStats := f.calculateEmployeeStats(assignments, employees)

	hours := make([]float64, len(employeeStats))
	nightShifts := make([]float64, len(employeeStats))
	weekendShifts := make([]float64, len(employeeStats))
	for i, stat := range employeeStats {
		hours[i] = stat.TotalHours
		nightShifts[i] = float64(stat.NightShifts)
		weekendShifts[i] = float64(stat.WeekendShifts)
	}

	avgHours := mean(hours)
	varianceVal := variance(hours, avgHours)
	stdDev := math.Sqrt(varianceVal)
	maxHours, minHours := valueRange(hours)

	for i := range employeeStats {
		if avgHours > 0 {
			employeeStats[i].Deviation = (employeeStats[i].TotalHours - avgHours) / avgHours * 100
		}
	}

	workloadGini := gini(hours)
	nightGini := gini(nightShifts)
	weekendGini := gini(weekendShifts)

	return &FairnessMetrics{
		WorkloadGini:          workloadGini,
		WorkloadVariance:      varianceVal,
		WorkloadStdDev:        stdDev,
		AvgHoursPerEmployee:   avgHours,
		MaxHours:              maxHours,
		MinHours:              minHours,
		HoursRange:            maxHours - minHours,
		ShiftTypeDistribution: f.shiftTypeDistribution(assignments),
		NightShiftGini:        nightGini,
		WeekendShiftGini:      weekendGini,
		EmployeeStats:         employeeStats,
		OverallFairnessScore:  f.overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours),
	}
}

// calculateEmployeeStats 计算员工统计数据
// 无排班的员工也计入，保证基尼系数反映真实的分配不均
func (f *FairnessAnalyzer) calculateEmployeeStats(assignments []model.Assignment, employees []model.Employee) []EmployeeStat {
	statMap := make(map[string]*EmployeeStat, len(employees))
	for i := range employees {
		e := &employees[i]
		statMap[e.ID.String()] = &EmployeeStat{EmployeeID: e.ID.String(), EmployeeName: e.Name}
	}

	for _, a := range assignments {
		stat, exists := statMap[a.EmployeeID]
		if !exists {
			stat = &EmployeeStat{EmployeeID: a.EmployeeID, EmployeeName: a.EmployeeName}
			statMap[a.EmployeeID] = stat
		}

		stat.TotalHours += a.WorkingHours()
		stat.ShiftCount++

		if f.isNightShift(a.StartTime, a.EndTime) {
			stat.NightShifts++
		}
		if isWeekend(a.Date) {
			stat.WeekendShifts++
		}
	}

	result := make([]EmployeeStat, 0, len(statMap))
	for _, stat := range statMap {
		if stat.TotalHours > f.standardWeeklyHours {
			stat.OvertimeHours = stat.TotalHours - f.standardWeeklyHours
		}
		result = append(result, *stat)
	}

	// 按工时降序，同工时按ID保证输出稳定
	sort.Slice(result, func(i, j int) bool {
		if result[i].TotalHours != result[j].TotalHours {
			return result[i].TotalHours > result[j].TotalHours
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})

	return result
}

// isNightShift 判断是否是夜班：开始于22点后或结束于6点前
func (f *FairnessAnalyzer) isNightShift(start, end string) bool {
	return clockHour(start) >= f.nightShiftStart || clockHour(end) <= f.nightShiftEnd
}

func isWeekend(date string) bool {
	wd := model.Weekday(date)
	return wd == time.Saturday || wd == time.Sunday
}

func clockHour(clock string) int {
	minutes, err := model.ClockMinutes(clock)
	if err != nil {
		return 0
	}
	return minutes / 60
}

// shiftTypeDistribution 计算班次类型分布（按开始时间划分早中晚班）
func (f *FairnessAnalyzer) shiftTypeDistribution(assignments []model.Assignment) map[string]float64 {
	typeCounts := make(map[string]int)
	for _, a := range assignments {
		typeCounts[classifyShiftType(a.StartTime)]++
	}

	distribution := make(map[string]float64, len(typeCounts))
	total := len(assignments)
	if total > 0 {
		for shiftType, count := range typeCounts {
			distribution[shiftType] = float64(count) / float64(total) * 100
		}
	}
	return distribution
}

// classifyShiftType 分类班次类型
func classifyShiftType(start string) string {
	startHour := clockHour(start)
	switch {
	case startHour >= 6 && startHour < 14:
		return "morning"
	case startHour >= 14 && startHour < 22:
		return "afternoon"
	default:
		return "night"
	}
}

// overallScore 计算综合公平性评分
func (f *FairnessAnalyzer) overallScore(workloadGini, nightGini, weekendGini, stdDev, avgHours float64) float64 {
	const (
		workloadWeight = 0.4
		nightWeight    = 0.25
		weekendWeight  = 0.25
		stdDevWeight   = 0.1
	)

	// 基尼系数转换为分数 (0=100分, 1=0分)
	workloadScore := (1 - workloadGini) * 100
	nightScore := (1 - nightGini) * 100
	weekendScore := (1 - weekendGini) * 100

	// 变异系数越低分数越高
	cvScore := 100.0
	if avgHours > 0 {
		cv := stdDev / avgHours
		cvScore = math.Max(0, 100-cv*200)
	}

	score := workloadWeight*workloadScore +
		nightWeight*nightScore +
		weekendWeight*weekendScore +
		stdDevWeight*cvScore

	return math.Max(0, math.Min(100, score))
}

// CompareSchedules 比较两个排班方案的公平性
func (f *FairnessAnalyzer) CompareSchedules(schedule1, schedule2 []model.Assignment, employees []model.Employee) map[string]float64 {
	metrics1 := f.Analyze(schedule1, employees)
	metrics2 := f.Analyze(schedule2, employees)

	return map[string]float64{
		"workload_gini_diff":      metrics2.WorkloadGini - metrics1.WorkloadGini,
		"night_gini_diff":         metrics2.NightShiftGini - metrics1.NightShiftGini,
		"weekend_gini_diff":       metrics2.WeekendShiftGini - metrics1.WeekendShiftGini,
		"overall_score_diff":      metrics2.OverallFairnessScore - metrics1.OverallFairnessScore,
		"schedule1_overall_score": metrics1.OverallFairnessScore,
		"schedule2_overall_score": metrics2.OverallFairnessScore,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func variance(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - m
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

// gini 计算基尼系数
func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}
