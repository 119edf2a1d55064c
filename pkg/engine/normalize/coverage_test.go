package normalize

import (
	"testing"
	"time"

	"github.com/banbiao/banbiao/pkg/model"
)

func TestBuildCoveragePlanPartition(t *testing.T) {
	day := openDay(time.Monday, "09:00", "17:00", 1, 5)

	templates := BuildCoveragePlan(day, 4, 8, false)

	if len(templates) != 2 {
		t.Fatalf("模板数量 = %d, 期望 2 (开门班+关门班)", len(templates))
	}
	if templates[0].Kind != model.ShiftKindOpening || templates[0].StartTime != "09:00" || templates[0].EndTime != "13:00" {
		t.Errorf("开门班 = %+v", templates[0])
	}
	if templates[1].Kind != model.ShiftKindClosing || templates[1].StartTime != "13:00" || templates[1].EndTime != "17:00" {
		t.Errorf("关门班 = %+v", templates[1])
	}

	for _, tmpl := range templates {
		if tmpl.RequiredRoles[model.RoleManager] != 1 || tmpl.RequiredRoles[model.RoleEmployee] != 1 {
			t.Errorf("班次 %s 的角色需求 = %v", tmpl.Name, tmpl.RequiredRoles)
		}
	}
}

func TestBuildCoveragePlanBounds(t *testing.T) {
	tests := []struct {
		name        string
		open, close string
		minH, maxH  int
	}{
		{"标准全天", "09:00", "17:00", 4, 8},
		{"长营业日", "08:00", "22:00", 4, 8},
		{"不整除窗口", "09:00", "19:00", 4, 8},
		{"短营业日", "10:00", "14:00", 4, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := openDay(time.Monday, tt.open, tt.close, 1, 5)
			templates := BuildCoveragePlan(day, tt.minH, tt.maxH, false)

			if len(templates) == 0 {
				t.Fatal("未生成任何模板")
			}
			for _, tmpl := range templates {
				if tmpl.StartTime < tt.open || tmpl.EndTime > tt.close {
					t.Errorf("班次 %s (%s-%s) 超出营业窗口 %s-%s",
						tmpl.Name, tmpl.StartTime, tmpl.EndTime, tt.open, tt.close)
				}
				d := tmpl.DurationHours()
				if d < float64(tt.minH) || d > float64(tt.maxH) {
					t.Errorf("班次 %s 时长 %v 超出 [%d, %d]", tmpl.Name, d, tt.minH, tt.maxH)
				}
			}
		})
	}
}

func TestBuildCoveragePlanManagerCoverage(t *testing.T) {
	day := openDay(time.Monday, "08:00", "20:00", 1, 5)

	templates := BuildCoveragePlan(day, 4, 8, true)

	var managerOnly []model.ShiftTemplate
	for _, tmpl := range templates {
		if tmpl.Kind == model.ShiftKindManager && tmpl.Name != "Full Day Manager" {
			managerOnly = append(managerOnly, tmpl)
		}
	}
	if len(managerOnly) == 0 {
		t.Fatal("要求管理覆盖时应生成纯管理班次")
	}

	// 管理班次无缝衔接覆盖整个营业窗口
	if managerOnly[0].StartTime != "08:00" {
		t.Errorf("首个管理班次开始于 %s, 期望 08:00", managerOnly[0].StartTime)
	}
	if managerOnly[len(managerOnly)-1].EndTime != "20:00" {
		t.Errorf("最后管理班次结束于 %s, 期望 20:00", managerOnly[len(managerOnly)-1].EndTime)
	}
	for i := 1; i < len(managerOnly); i++ {
		if managerOnly[i].StartTime != managerOnly[i-1].EndTime {
			t.Errorf("管理班次 %d 与前一班之间存在缝隙或重叠: %s vs %s",
				i, managerOnly[i].StartTime, managerOnly[i-1].EndTime)
		}
	}
	for _, tmpl := range managerOnly {
		if len(tmpl.RequiredRoles) != 1 || tmpl.RequiredRoles[model.RoleManager] != 1 {
			t.Errorf("管理班次 %s 角色需求 = %v, 期望仅管理一人", tmpl.Name, tmpl.RequiredRoles)
		}
	}
}

func TestBuildCoveragePlanShortWindow(t *testing.T) {
	day := openDay(time.Monday, "10:00", "13:00", 4, 8)

	templates := BuildCoveragePlan(day, 4, 8, false)
	if len(templates) != 1 {
		t.Fatalf("模板数量 = %d, 期望 1", len(templates))
	}
	if templates[0].Kind != model.ShiftKindFullDay {
		t.Errorf("短窗口应生成全天班, 实际 %s", templates[0].Kind)
	}
	if templates[0].StartTime != "10:00" || templates[0].EndTime != "13:00" {
		t.Errorf("全天班边界 = %s-%s", templates[0].StartTime, templates[0].EndTime)
	}
}

func TestPickDuration(t *testing.T) {
	tests := []struct {
		name             string
		total, min, max  int
		want             int
	}{
		{"整除优先", 8, 4, 8, 4},
		{"十小时窗口", 10, 4, 8, 5},
		{"无整除取最大", 13, 4, 8, 8},
		{"五小时窗口", 5, 2, 8, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickDuration(tt.total, tt.min, tt.max); got != tt.want {
				t.Errorf("pickDuration(%d, %d, %d) = %d, 期望 %d",
					tt.total, tt.min, tt.max, got, tt.want)
			}
		})
	}
}
