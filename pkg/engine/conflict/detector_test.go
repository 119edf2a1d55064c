package conflict

import (
	"testing"
	"time"

	"github.com/banbiao/banbiao/pkg/model"
)

func activeEmp(name string, avail []model.AvailabilitySlot) model.Employee {
	return model.Employee{
		BaseModel:    model.NewBaseModel(),
		Name:         name,
		Role:         model.RoleEmployee,
		IsActive:     true,
		Availability: avail,
	}
}

func weekHours(openDays ...time.Weekday) []model.OperatingHours {
	open := make(map[time.Weekday]bool, len(openDays))
	for _, d := range openDays {
		open[d] = true
	}
	hours := make([]model.OperatingHours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d] = model.OperatingHours{
			DayOfWeek: d,
			IsOpen:    open[d],
			OpenTime:  "09:00",
			CloseTime: "17:00",
			MinStaff:  1,
			MaxStaff:  5,
		}
	}
	return hours
}

func baseDoc(openDays ...time.Weekday) *model.ConstraintDocument {
	return &model.ConstraintDocument{
		OperatingHours:     weekHours(openDays...),
		MaxConsecutiveDays: 5,
		MinShiftHours:      4,
		MaxShiftHours:      8,
	}
}

func TestDetectNoOpenDays(t *testing.T) {
	report := Detect(baseDoc(), []model.Employee{activeEmp("张伟", nil)})

	if report.CanProceed {
		t.Error("没有营业日时不应允许继续")
	}
	if !hasConflict(report, model.ConflictNoOpenDays, model.SeverityCritical) {
		t.Errorf("缺少 no_open_days 严重冲突: %+v", report.Conflicts)
	}
	if report.AutoFixableCount == 0 {
		t.Error("no_open_days 应可自动修复")
	}
}

func TestDetectInsufficientStaff(t *testing.T) {
	doc := baseDoc(time.Monday)
	doc.OperatingHours[time.Monday].MinStaff = 3

	report := Detect(doc, []model.Employee{activeEmp("张伟", nil), activeEmp("李娜", nil)})

	if report.CanProceed {
		t.Error("人数缺口是严重冲突，不应允许继续")
	}
	if !hasConflict(report, model.ConflictInsufficientStaff, model.SeverityCritical) {
		t.Errorf("缺少 insufficient_staff 冲突: %+v", report.Conflicts)
	}
}

func TestDetectStaffingBoundsInverted(t *testing.T) {
	doc := baseDoc(time.Monday)
	doc.OperatingHours[time.Monday].MinStaff = 4
	doc.OperatingHours[time.Monday].MaxStaff = 2

	report := Detect(doc, make4Employees())

	if !hasConflict(report, model.ConflictStaffingBounds, model.SeverityCritical) {
		t.Errorf("缺少 staffing_bounds_inverted 冲突: %+v", report.Conflicts)
	}
}

func TestDetectAvailabilityMismatch(t *testing.T) {
	// 仅周一营业，而该员工周一明确不可用
	onlyTuesday := []model.AvailabilitySlot{
		{DayOfWeek: time.Monday, IsAvailable: false},
	}

	t.Run("部分员工不可用为警告", func(t *testing.T) {
		report := Detect(baseDoc(time.Monday), []model.Employee{
			activeEmp("张伟", onlyTuesday),
			activeEmp("李娜", nil),
		})
		if !hasConflict(report, model.ConflictAvailability, model.SeverityWarning) {
			t.Errorf("缺少可用性警告: %+v", report.Conflicts)
		}
		if !report.CanProceed {
			t.Error("仅有警告时应允许继续")
		}
	})

	t.Run("全员不可用升级为严重", func(t *testing.T) {
		report := Detect(baseDoc(time.Monday), []model.Employee{
			activeEmp("张伟", onlyTuesday),
			activeEmp("李娜", onlyTuesday),
		})
		if !hasConflict(report, model.ConflictAvailability, model.SeverityCritical) {
			t.Errorf("全员不可用应为严重冲突: %+v", report.Conflicts)
		}
	})
}

func TestDetectConsecutiveTooTight(t *testing.T) {
	doc := baseDoc(time.Monday)
	doc.MaxConsecutiveDays = 1

	report := Detect(doc, []model.Employee{activeEmp("张伟", nil)})

	if !hasConflict(report, model.ConflictConsecutiveTooTight, model.SeverityWarning) {
		t.Errorf("缺少连续天数过紧警告: %+v", report.Conflicts)
	}
	if !report.CanProceed {
		t.Error("警告不应阻止继续")
	}
}

func TestDetectCleanDocument(t *testing.T) {
	report := Detect(baseDoc(time.Monday, time.Tuesday), make4Employees())

	if report.ConflictCount != 0 {
		t.Errorf("干净配置不应有冲突: %+v", report.Conflicts)
	}
	if !report.CanProceed {
		t.Error("干净配置应允许继续")
	}
}

func make4Employees() []model.Employee {
	return []model.Employee{
		activeEmp("张伟", nil), activeEmp("李娜", nil),
		activeEmp("王芳", nil), activeEmp("刘强", nil),
	}
}

func hasConflict(report *model.ConflictReport, typ, severity string) bool {
	for _, c := range report.Conflicts {
		if c.Type == typ && c.Severity == severity {
			return true
		}
	}
	return false
}
