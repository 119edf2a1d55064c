package fallback

import (
	"math/rand"
	"testing"
	"time"

	"github.com/banbiao/banbiao/pkg/model"
)

func testDoc(minStaff, maxStaff int, openDays ...time.Weekday) *model.ConstraintDocument {
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
			MinStaff:  minStaff,
			MaxStaff:  maxStaff,
		}
	}
	return &model.ConstraintDocument{
		OperatingHours: hours,
		ShiftTemplates: []model.ShiftTemplate{
			{
				Name:          "Day Shift",
				StartTime:     "09:00",
				EndTime:       "17:00",
				RequiredRoles: map[string]int{model.RoleGeneral: 1},
				IsActive:      true,
			},
		},
		MaxConsecutiveDays: 6,
		MinRestHours:       8,
		MaxHoursPerWeek:    40,
		MinShiftHours:      4,
		MaxShiftHours:      12,
		Locations:          []string{"Main Office"},
		Departments:        []string{"Operations"},
		Roles:              []string{model.RoleGeneral},
	}
}

func testEmp(name, role string) model.Employee {
	return model.Employee{
		BaseModel:  model.NewBaseModel(),
		Name:       name,
		Role:       role,
		Department: "Operations",
		Location:   "Main Office",
		IsActive:   true,
	}
}

func seeded() *Scheduler {
	return New(WithRand(rand.New(rand.NewSource(42))))
}

// 2026-09-07 至 2026-09-11 为周一至周五
func weekdayDates() []string {
	return []string{"2026-09-07", "2026-09-08", "2026-09-09", "2026-09-10", "2026-09-11"}
}

func TestGenerateSingleEmployeeFullWeek(t *testing.T) {
	doc := testDoc(1, 1, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	emp := testEmp("张伟", model.RoleEmployee)

	assignments := seeded().Generate(doc, []model.Employee{emp}, weekdayDates())

	if len(assignments) != 5 {
		t.Fatalf("排班数 = %d, 期望每个工作日各一条共 5 条", len(assignments))
	}
	for i, a := range assignments {
		if a.Date != weekdayDates()[i] {
			t.Errorf("第 %d 条日期 = %s, 期望 %s", i, a.Date, weekdayDates()[i])
		}
		if a.StartTime != "09:00" || a.EndTime != "17:00" {
			t.Errorf("第 %d 条时段 = %s-%s, 期望 09:00-17:00", i, a.StartTime, a.EndTime)
		}
		if a.EmployeeID != emp.ID.String() {
			t.Errorf("第 %d 条员工 = %s", i, a.EmployeeID)
		}
		if a.Status != model.StatusScheduled {
			t.Errorf("第 %d 条状态 = %s", i, a.Status)
		}
	}
}

func TestGenerateSkipsClosedDays(t *testing.T) {
	doc := testDoc(1, 2, time.Monday)
	employees := []model.Employee{testEmp("张伟", model.RoleEmployee), testEmp("李娜", model.RoleEmployee)}

	assignments := seeded().Generate(doc, employees, weekdayDates())

	for _, a := range assignments {
		if model.Weekday(a.Date) != time.Monday {
			t.Errorf("关闭日 %s 不应有排班", a.Date)
		}
	}
}

func TestGenerateRespectsMaxStaff(t *testing.T) {
	doc := testDoc(1, 2, time.Monday)
	employees := []model.Employee{
		testEmp("张伟", model.RoleEmployee),
		testEmp("李娜", model.RoleEmployee),
		testEmp("王芳", model.RoleEmployee),
		testEmp("刘强", model.RoleEmployee),
	}

	assignments := seeded().Generate(doc, employees, []string{"2026-09-07"})

	if len(assignments) != 2 {
		t.Errorf("排班数 = %d, 不应超过最多人数 2", len(assignments))
	}
}

func TestGenerateOneShiftPerEmployeePerDay(t *testing.T) {
	doc := testDoc(2, 4, time.Monday, time.Tuesday, time.Wednesday)
	employees := []model.Employee{
		testEmp("张伟", model.RoleEmployee),
		testEmp("李娜", model.RoleEmployee),
		testEmp("王芳", model.RoleManager),
	}

	assignments := seeded().Generate(doc, employees, weekdayDates())

	seen := make(map[string]bool)
	for _, a := range assignments {
		key := a.EmployeeID + "|" + a.Date
		if seen[key] {
			t.Errorf("员工 %s 在 %s 有多条排班", a.EmployeeName, a.Date)
		}
		seen[key] = true
	}
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	doc := testDoc(2, 3, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday)
	employees := []model.Employee{
		testEmp("张伟", model.RoleEmployee),
		testEmp("李娜", model.RoleEmployee),
		testEmp("王芳", model.RoleEmployee),
		testEmp("刘强", model.RoleManager),
	}

	first := New(WithRand(rand.New(rand.NewSource(7)))).Generate(doc, employees, weekdayDates())
	second := New(WithRand(rand.New(rand.NewSource(7)))).Generate(doc, employees, weekdayDates())

	if len(first) != len(second) {
		t.Fatalf("两次运行排班数不同: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].EmployeeID != second[i].EmployeeID ||
			first[i].Date != second[i].Date ||
			first[i].StartTime != second[i].StartTime {
			t.Errorf("第 %d 条排班不一致", i)
		}
	}
}

func TestGenerateUnavailableEmployeeExcluded(t *testing.T) {
	doc := testDoc(1, 2, time.Monday)
	busy := testEmp("张伟", model.RoleEmployee)
	busy.Availability = []model.AvailabilitySlot{
		{DayOfWeek: time.Monday, IsAvailable: false},
	}
	free := testEmp("李娜", model.RoleEmployee)

	assignments := seeded().Generate(doc, []model.Employee{busy, free}, []string{"2026-09-07"})

	for _, a := range assignments {
		if a.EmployeeID == busy.ID.String() {
			t.Error("周一不可用的员工不应被排班")
		}
	}
	if len(assignments) == 0 {
		t.Error("可用员工应被排班")
	}
}

func TestGenerateManagerSlotPrefersManager(t *testing.T) {
	doc := testDoc(1, 1, time.Monday)
	doc.ShiftTemplates = []model.ShiftTemplate{
		{
			Name:          "Opening Shift",
			StartTime:     "09:00",
			EndTime:       "17:00",
			RequiredRoles: map[string]int{model.RoleManager: 1},
			IsActive:      true,
		},
	}
	manager := testEmp("王经理", model.RoleManager)
	worker := testEmp("张伟", model.RoleEmployee)

	assignments := seeded().Generate(doc, []model.Employee{worker, manager}, []string{"2026-09-07"})

	if len(assignments) != 1 {
		t.Fatalf("排班数 = %d, 期望 1", len(assignments))
	}
	if assignments[0].EmployeeID != manager.ID.String() {
		t.Errorf("管理班次应优先分配给管理者, 实际分给 %s", assignments[0].EmployeeName)
	}
}
