package normalize

import (
	"fmt"

	"github.com/banbiao/banbiao/pkg/model"
)

// 管理班次的首选时长（小时），仍受约束上下限裁剪
const managerShiftTarget = 6

// BuildCoveragePlan 业务覆盖规划器
// 将单日营业窗口切分为首尾相接、互不重叠的班次序列，时长落在 [minHours, maxHours]；
// 首班标记为开门班、末班为关门班，均要求管理与普通角色各一。
// 要求管理覆盖时额外生成覆盖整个营业窗口的纯管理班次序列。
func BuildCoveragePlan(day model.OperatingHours, minHours, maxHours int, requireManager bool) []model.ShiftTemplate {
	openMin, err1 := model.ClockMinutes(day.OpenTime)
	closeMin, err2 := model.ClockMinutes(day.CloseTime)
	if err1 != nil || err2 != nil || closeMin <= openMin {
		return nil
	}
	openHour := openMin / 60
	closeHour := closeMin / 60
	total := closeHour - openHour
	if total <= 0 {
		return nil
	}

	var templates []model.ShiftTemplate

	if total < minHours {
		// 营业窗口比最小班次还短，只能整窗排一班
		templates = append(templates, staffShift("Business Day", model.ShiftKindFullDay, openHour, closeHour))
	} else if total <= maxHours && total < 2*minHours {
		// 窗口放不下两个合规班次，用单个全天班覆盖
		templates = append(templates, staffShift("Business Day", model.ShiftKindFullDay, openHour, closeHour))
	} else {
		templates = append(templates, partitionWindow(openHour, closeHour, minHours, maxHours)...)
	}

	if requireManager {
		templates = append(templates, managerCoverage(openHour, closeHour, minHours, maxHours)...)
	}

	return templates
}

// partitionWindow 将营业窗口切分为等长班次，余量并入末班
// 任何班次都不会早于开门或晚于关门，时长始终落在约束区间内
func partitionWindow(openHour, closeHour, minHours, maxHours int) []model.ShiftTemplate {
	total := closeHour - openHour
	duration := pickDuration(total, minHours, maxHours)

	var bounds [][2]int
	start := openHour
	for start < closeHour {
		end := start + duration
		if end > closeHour {
			end = closeHour
		}
		if end-start < minHours {
			// 末尾余量过短，并入上一班
			if n := len(bounds); n > 0 {
				merged := closeHour - bounds[n-1][0]
				if merged <= maxHours {
					bounds[n-1][1] = closeHour
				}
			}
			break
		}
		if end-start > maxHours {
			end = start + maxHours
		}
		bounds = append(bounds, [2]int{start, end})
		start = end
	}

	templates := make([]model.ShiftTemplate, 0, len(bounds))
	for i, b := range bounds {
		var name, kind string
		switch {
		case i == 0:
			name, kind = "Opening Shift", model.ShiftKindOpening
		case i == len(bounds)-1:
			name, kind = "Closing Shift", model.ShiftKindClosing
		default:
			name, kind = fmt.Sprintf("Mid Shift %d", i), model.ShiftKindMid
		}
		templates = append(templates, staffShift(name, kind, b[0], b[1]))
	}
	return templates
}

// pickDuration 选择切分时长
// 优先选能整除窗口且班次数在 [2,6] 的最大时长，否则退而求其次
func pickDuration(total, minHours, maxHours int) int {
	fallback := 0
	for d := maxHours; d >= minHours; d-- {
		n := total / d
		if total%d != 0 {
			n++
		}
		if n < 2 || n > 6 {
			continue
		}
		if total%d == 0 {
			return d
		}
		if fallback == 0 {
			fallback = d
		}
	}
	if fallback != 0 {
		return fallback
	}
	if total < maxHours {
		return total
	}
	return maxHours
}

// managerCoverage 生成覆盖全营业窗口的纯管理班次序列
// 序列无缝无重叠；末尾余量不足最小班次时并入上一班
func managerCoverage(openHour, closeHour, minHours, maxHours int) []model.ShiftTemplate {
	total := closeHour - openHour
	duration := managerShiftTarget
	if duration > maxHours {
		duration = maxHours
	}
	if duration < minHours {
		duration = minHours
	}

	if total <= duration {
		return []model.ShiftTemplate{managerShift("Full Day Manager", model.ShiftKindManager, openHour, closeHour)}
	}

	var shifts []model.ShiftTemplate
	start := openHour
	for start < closeHour {
		end := start + duration
		if end > closeHour {
			end = closeHour
		}
		if end-start < minHours {
			if n := len(shifts); n > 0 {
				prev, _ := model.ClockMinutes(shifts[n-1].StartTime)
				shifts[n-1].EndTime = clock(closeHour)
				shifts[n-1].Name = fmt.Sprintf("Manager Shift (%s-%s)", clock(prev/60), clock(closeHour))
			}
			break
		}
		shifts = append(shifts, managerShift(
			fmt.Sprintf("Manager Shift (%s-%s)", clock(start), clock(end)),
			model.ShiftKindManager, start, end))
		start = end
	}

	// 全天管理班作为备选，仅在窗口本身合规时提供
	if total <= maxHours && len(shifts) > 1 {
		shifts = append(shifts, managerShift("Full Day Manager", model.ShiftKindManager, openHour, closeHour))
	}

	return shifts
}

func staffShift(name, kind string, startHour, endHour int) model.ShiftTemplate {
	return model.ShiftTemplate{
		Name:      fmt.Sprintf("%s (%s-%s)", name, clock(startHour), clock(endHour)),
		StartTime: clock(startHour),
		EndTime:   clock(endHour),
		Kind:      kind,
		RequiredRoles: map[string]int{
			model.RoleManager:  1,
			model.RoleEmployee: 1,
		},
		IsActive: true,
	}
}

func managerShift(name, kind string, startHour, endHour int) model.ShiftTemplate {
	return model.ShiftTemplate{
		Name:          name,
		StartTime:     clock(startHour),
		EndTime:       clock(endHour),
		Kind:          kind,
		RequiredRoles: map[string]int{model.RoleManager: 1},
		IsActive:      true,
	}
}

func clock(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}
