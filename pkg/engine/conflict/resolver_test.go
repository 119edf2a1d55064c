package conflict

import (
	"testing"
	"time"

	"github.com/banbiao/banbiao/pkg/model"
)

func TestResolveInsufficientStaff(t *testing.T) {
	doc := baseDoc(time.Monday)
	doc.OperatingHours[time.Monday].MinStaff = 3
	employees := []model.Employee{activeEmp("张伟", nil), activeEmp("李娜", nil)}

	report := Detect(doc, employees)
	if report.CanProceed {
		t.Fatal("修复前应存在严重冲突")
	}

	fixed, applied := Resolve(doc, report)
	if len(applied) == 0 {
		t.Fatal("应至少执行一项自动修复")
	}

	mon := fixed.HoursFor(time.Monday)
	if mon.MinStaff > 2 {
		t.Errorf("周一最少人数 = %d, 应不超过在职人数 2", mon.MinStaff)
	}

	// 输入文档保持不变
	if doc.HoursFor(time.Monday).MinStaff != 3 {
		t.Error("Resolve 不应修改输入文档")
	}

	// 修复后重新检测无严重冲突
	if again := Detect(fixed, employees); !again.CanProceed {
		t.Errorf("修复后仍存在严重冲突: %+v", again.Conflicts)
	}
}

func TestResolveSkipsBusinessDayEnabling(t *testing.T) {
	// 启用营业日属于经营决策，自动修复路径必须跳过，建议保留待人工确认
	doc := baseDoc()
	employees := make4Employees()

	report := Detect(doc, employees)
	fixed, applied := Resolve(doc, report)

	for _, fix := range applied {
		if fix.Action == ActionEnableBusinessDays {
			t.Fatalf("自动修复不应启用营业日: %+v", applied)
		}
	}
	if open := fixed.OpenDays(); len(open) != 0 {
		t.Errorf("修复后不应出现新的营业日: %+v", open)
	}

	var suggested bool
	for _, s := range report.Suggestions {
		if s.Action == ActionEnableBusinessDays {
			suggested = true
		}
	}
	if !suggested {
		t.Error("启用营业日的建议应保留在报告中")
	}
}

func TestApplySuggestionsEnablesBusinessDays(t *testing.T) {
	doc := baseDoc()
	employees := make4Employees()

	report := Detect(doc, employees)
	fixed, applied := ApplySuggestions(doc, report.Suggestions)

	if len(applied) == 0 {
		t.Fatal("人工确认路径应执行启用营业日的修复")
	}
	for _, d := range []time.Weekday{time.Monday, time.Friday} {
		if oh := fixed.HoursFor(d); oh == nil || !oh.IsOpen {
			t.Errorf("%v 应被启用为营业日", d)
		}
	}
	if oh := fixed.HoursFor(time.Sunday); oh.IsOpen {
		t.Error("周日不在默认启用范围内")
	}

	if again := Detect(fixed, employees); !again.CanProceed {
		t.Errorf("修复后仍存在严重冲突: %+v", again.Conflicts)
	}
}

func TestResolveStaffingBounds(t *testing.T) {
	doc := baseDoc(time.Monday)
	doc.OperatingHours[time.Monday].MinStaff = 4
	doc.OperatingHours[time.Monday].MaxStaff = 2

	report := Detect(doc, make4Employees())
	fixed, _ := Resolve(doc, report)

	mon := fixed.HoursFor(time.Monday)
	if mon.MaxStaff < mon.MinStaff {
		t.Errorf("修复后上限 %d 仍小于下限 %d", mon.MaxStaff, mon.MinStaff)
	}
}

func TestResolveWidensShiftDuration(t *testing.T) {
	doc := baseDoc(time.Monday)
	doc.OperatingHours[time.Monday].OpenTime = "08:00"
	doc.OperatingHours[time.Monday].CloseTime = "20:00"
	doc.MaxShiftHours = 8

	report := Detect(doc, make4Employees())
	fixed, _ := Resolve(doc, report)

	if fixed.MaxShiftHours != 12 {
		t.Errorf("最大班次时长 = %d, 期望放宽至 12", fixed.MaxShiftHours)
	}
}

func TestResolveRaisesConsecutiveCap(t *testing.T) {
	doc := baseDoc(time.Monday)
	doc.MaxConsecutiveDays = 1

	report := Detect(doc, make4Employees())
	fixed, _ := Resolve(doc, report)

	if fixed.MaxConsecutiveDays != 3 {
		t.Errorf("连续天数上限 = %d, 期望提高到 3", fixed.MaxConsecutiveDays)
	}
}

func TestResolvePriorityOrder(t *testing.T) {
	doc := baseDoc(time.Monday)
	doc.OperatingHours[time.Monday].MinStaff = 4
	doc.OperatingHours[time.Monday].MaxStaff = 2
	doc.MaxConsecutiveDays = 1

	report := Detect(doc, []model.Employee{activeEmp("张伟", nil)})
	_, applied := Resolve(doc, report)

	if len(applied) < 2 {
		t.Fatalf("应执行多项修复, 实际 %d", len(applied))
	}
	last := 0
	for _, fix := range applied {
		r := rank(fix.Priority)
		if r < last {
			t.Errorf("修复顺序未按优先级排列: %+v", applied)
			break
		}
		last = r
	}
}
