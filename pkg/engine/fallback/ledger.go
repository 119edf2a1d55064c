// Package fallback 实现逐日贪心的兜底排班
// 在优化求解不可用、被熔断或无可行解时接管排班生成
package fallback

import (
	"github.com/banbiao/banbiao/pkg/model"
)

// 公平分数的权重：班次数最重，连续天数次之，周时长最轻
const (
	weightShiftCount  = 2.0
	weightWeeklyHours = 0.5
	weightConsecutive = 1.5
)

// ledgerEntry 单个员工在本次运行内的负载台账
type ledgerEntry struct {
	shiftCount  int
	weeklyHours float64
	consecutive int
	lastWorkDay string
}

// Ledger 运行期员工负载台账
// 只在一次生成运行内有效，运行结束即丢弃
type Ledger struct {
	entries map[string]*ledgerEntry
}

// NewLedger 创建空台账
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*ledgerEntry)}
}

func (l *Ledger) entry(empID string) *ledgerEntry {
	e, ok := l.entries[empID]
	if !ok {
		e = &ledgerEntry{}
		l.entries[empID] = e
	}
	return e
}

// Record 登记一次排班并更新连续天数缓存
// 仅在前一天也有排班时累加连续天数，否则重新从1起算
func (l *Ledger) Record(empID, date string, hours float64) {
	e := l.entry(empID)
	e.shiftCount++
	e.weeklyHours += hours

	if e.lastWorkDay == model.PreviousDate(date) {
		e.consecutive++
	} else if e.lastWorkDay != date {
		e.consecutive = 1
	}
	e.lastWorkDay = date
}

// ShiftCount 员工已分配班次数
func (l *Ledger) ShiftCount(empID string) int {
	if e, ok := l.entries[empID]; ok {
		return e.shiftCount
	}
	return 0
}

// WeeklyHours 员工累计时长
func (l *Ledger) WeeklyHours(empID string) float64 {
	if e, ok := l.entries[empID]; ok {
		return e.weeklyHours
	}
	return 0
}

// ConsecutiveDays 员工当前连续工作天数
func (l *Ledger) ConsecutiveDays(empID string) int {
	if e, ok := l.entries[empID]; ok {
		return e.consecutive
	}
	return 0
}

// LastWorkDay 员工最近一次排班日期，无记录返回空串
func (l *Ledger) LastWorkDay(empID string) string {
	if e, ok := l.entries[empID]; ok {
		return e.lastWorkDay
	}
	return ""
}

// Score 加权公平分数，越低代表负载越轻
func (l *Ledger) Score(empID string) float64 {
	e, ok := l.entries[empID]
	if !ok {
		return 0
	}
	return float64(e.shiftCount)*weightShiftCount +
		e.weeklyHours*weightWeeklyHours +
		float64(e.consecutive)*weightConsecutive
}
