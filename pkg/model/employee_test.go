package model

import (
	"testing"
	"time"
)

func TestSchedulable(t *testing.T) {
	tests := []struct {
		name string
		emp  Employee
		want bool
	}{
		{"在职员工", Employee{IsActive: true}, true},
		{"离职员工", Employee{IsActive: false}, false},
		{"已匿名化", Employee{IsActive: true, Anonymized: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.emp.Schedulable(); got != tt.want {
				t.Errorf("Schedulable() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestAvailableForWindow(t *testing.T) {
	monday := []AvailabilitySlot{
		{DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "17:00", IsAvailable: true},
	}

	tests := []struct {
		name         string
		availability []AvailabilitySlot
		day          time.Weekday
		start, end   string
		want         bool
	}{
		{"未声明模式视为随时可用", nil, time.Tuesday, "09:00", "17:00", true},
		{"时间窗落在记录内", monday, time.Monday, "10:00", "16:00", true},
		{"时间窗超出记录", monday, time.Monday, "08:00", "12:00", false},
		{"声明了模式但该日无记录", monday, time.Wednesday, "09:00", "17:00", false},
		{
			"不可用记录不算覆盖",
			[]AvailabilitySlot{
				{DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "17:00", IsAvailable: false},
			},
			time.Monday, "10:00", "12:00", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Employee{Availability: tt.availability}
			got := e.AvailableForWindow(tt.day, tt.start, tt.end)
			if got != tt.want {
				t.Errorf("AvailableForWindow(%v, %q, %q) = %v, 期望 %v",
					tt.day, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestAvailableOnDay(t *testing.T) {
	e := Employee{Availability: []AvailabilitySlot{
		{DayOfWeek: time.Monday, IsAvailable: false},
		{DayOfWeek: time.Tuesday, IsAvailable: true},
	}}

	if e.AvailableOnDay(time.Monday) {
		t.Error("周一记录标记为不可用，应返回 false")
	}
	if !e.AvailableOnDay(time.Tuesday) {
		t.Error("周二记录标记为可用，应返回 true")
	}
	// 该日无记录视为可用
	if !e.AvailableOnDay(time.Friday) {
		t.Error("周五无记录，应返回 true")
	}
}

func TestHasAllSkills(t *testing.T) {
	e := Employee{Skills: []string{"cashier", "barista"}}

	if !e.HasAllSkills([]string{"cashier"}) {
		t.Error("应具备 cashier 技能")
	}
	if e.HasAllSkills([]string{"cashier", "cooking"}) {
		t.Error("不应具备 cooking 技能")
	}
	if !e.HasAllSkills(nil) {
		t.Error("空技能要求应恒为满足")
	}
}
