package model

import (
	"testing"
	"time"
)

func TestClockMinutes(t *testing.T) {
	tests := []struct {
		name  string
		clock string
		want  int
	}{
		{"午夜", "00:00", 0},
		{"上午九点", "09:00", 540},
		{"带分钟", "17:30", 1050},
		{"一天结尾", "23:59", 1439},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClockMinutes(tt.clock)
			if err != nil {
				t.Fatalf("ClockMinutes(%q) 返回错误: %v", tt.clock, err)
			}
			if got != tt.want {
				t.Errorf("ClockMinutes(%q) = %d, 期望 %d", tt.clock, got, tt.want)
			}
		})
	}

	if _, err := ClockMinutes("25:00"); err == nil {
		t.Error("ClockMinutes(25:00) 应返回错误")
	}
}

func TestHoursBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		want       float64
	}{
		{"标准白班", "09:00", "17:00", 8},
		{"半小时", "09:00", "09:30", 0.5},
		{"跨午夜", "22:00", "06:00", 8},
		{"零时长", "10:00", "10:00", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HoursBetween(tt.start, tt.end); got != tt.want {
				t.Errorf("HoursBetween(%q, %q) = %v, 期望 %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestClockCovers(t *testing.T) {
	tests := []struct {
		name                   string
		outerStart, outerEnd   string
		innerStart, innerEnd   string
		want                   bool
	}{
		{"完全覆盖", "08:00", "18:00", "09:00", "17:00", true},
		{"边界重合", "09:00", "17:00", "09:00", "17:00", true},
		{"开始过早", "09:00", "17:00", "08:00", "12:00", false},
		{"结束过晚", "09:00", "17:00", "14:00", "18:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClockCovers(tt.outerStart, tt.outerEnd, tt.innerStart, tt.innerEnd)
			if got != tt.want {
				t.Errorf("ClockCovers = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestWeekday(t *testing.T) {
	// 2026-08-30 是周日
	if got := Weekday("2026-08-30"); got != time.Sunday {
		t.Errorf("Weekday(2026-08-30) = %v, 期望周日", got)
	}
	if got := Weekday("2026-08-31"); got != time.Monday {
		t.Errorf("Weekday(2026-08-31) = %v, 期望周一", got)
	}
}

func TestDateRangeDays(t *testing.T) {
	r := DateRange{StartDate: "2026-09-01", EndDate: "2026-09-03"}
	days := r.Days()
	want := []string{"2026-09-01", "2026-09-02", "2026-09-03"}
	if len(days) != len(want) {
		t.Fatalf("Days() 长度 = %d, 期望 %d", len(days), len(want))
	}
	for i, d := range days {
		if d != want[i] {
			t.Errorf("Days()[%d] = %q, 期望 %q", i, d, want[i])
		}
	}
}

func TestPreviousDate(t *testing.T) {
	if got := PreviousDate("2026-09-01"); got != "2026-08-31" {
		t.Errorf("PreviousDate(2026-09-01) = %q, 期望 2026-08-31", got)
	}
}
