package normalize

import (
	"reflect"
	"testing"
	"time"

	"github.com/banbiao/banbiao/pkg/model"
)

func openDay(d time.Weekday, open, close string, minStaff, maxStaff int) model.OperatingHours {
	return model.OperatingHours{
		DayOfWeek: d,
		IsOpen:    true,
		OpenTime:  open,
		CloseTime: close,
		MinStaff:  minStaff,
		MaxStaff:  maxStaff,
	}
}

func TestNormalizeFillsMissingDays(t *testing.T) {
	doc := &model.ConstraintDocument{
		OperatingHours: []model.OperatingHours{
			openDay(time.Monday, "09:00", "17:00", 1, 3),
		},
	}

	out := Normalize(doc)

	if len(out.OperatingHours) != 7 {
		t.Fatalf("规范化后营业时间 = %d 天, 期望 7 天", len(out.OperatingHours))
	}
	for i, oh := range out.OperatingHours {
		if oh.DayOfWeek != time.Weekday(i) {
			t.Errorf("第 %d 条记录星期 = %v, 期望按星期排序", i, oh.DayOfWeek)
		}
	}

	// 显式提供的记录不被弱化
	mon := out.HoursFor(time.Monday)
	if !mon.IsOpen || mon.MinStaff != 1 || mon.MaxStaff != 3 {
		t.Errorf("周一记录被改动: %+v", mon)
	}
	// 补齐的记录为关闭日
	if tue := out.HoursFor(time.Tuesday); tue.IsOpen {
		t.Error("补齐的周二应为关闭日")
	}

	// 输入文档保持不变
	if len(doc.OperatingHours) != 1 {
		t.Errorf("输入文档被修改，营业时间 = %d 条", len(doc.OperatingHours))
	}
}

func TestNormalizeDefaults(t *testing.T) {
	out := Normalize(&model.ConstraintDocument{})

	if out.MaxConsecutiveDays != DefaultMaxConsecutiveDays {
		t.Errorf("最大连续天数 = %d, 期望 %d", out.MaxConsecutiveDays, DefaultMaxConsecutiveDays)
	}
	if out.MaxHoursPerWeek != DefaultMaxHoursPerWeek {
		t.Errorf("每周最大时长 = %v, 期望 %d", out.MaxHoursPerWeek, DefaultMaxHoursPerWeek)
	}
	if out.OptimizationPriority != model.PriorityBalanceStaffing {
		t.Errorf("优化目标 = %q, 期望 balance_staffing", out.OptimizationPriority)
	}
	if !reflect.DeepEqual(out.Locations, []string{"Main Office"}) {
		t.Errorf("默认地点 = %v", out.Locations)
	}
	if !reflect.DeepEqual(out.Departments, []string{"Operations"}) {
		t.Errorf("默认部门 = %v", out.Departments)
	}
	if !reflect.DeepEqual(out.Roles, []string{model.RoleGeneral}) {
		t.Errorf("默认角色 = %v", out.Roles)
	}

	// 全周关闭时退回标准模板
	if len(out.ShiftTemplates) != 1 || out.ShiftTemplates[0].Kind != model.ShiftKindStandard {
		t.Errorf("全周关闭应生成标准模板, 实际 %+v", out.ShiftTemplates)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	doc := &model.ConstraintDocument{
		OperatingHours: []model.OperatingHours{
			openDay(time.Monday, "09:00", "17:00", 1, 5),
			openDay(time.Friday, "08:00", "18:00", 2, 6),
		},
		RequireManagerCoverage: true,
	}

	once := Normalize(doc)
	twice := Normalize(once)

	if !reflect.DeepEqual(once.OperatingHours, twice.OperatingHours) {
		t.Error("二次规范化改变了营业时间")
	}
	if !reflect.DeepEqual(once.ShiftTemplates, twice.ShiftTemplates) {
		t.Error("二次规范化改变了班次模板")
	}
	if !reflect.DeepEqual(once.Locations, twice.Locations) ||
		!reflect.DeepEqual(once.Departments, twice.Departments) ||
		!reflect.DeepEqual(once.Roles, twice.Roles) {
		t.Error("二次规范化改变了组织维度")
	}
}

func TestNormalizeKeepsExistingTemplates(t *testing.T) {
	doc := &model.ConstraintDocument{
		OperatingHours: []model.OperatingHours{
			openDay(time.Monday, "09:00", "17:00", 1, 5),
		},
		ShiftTemplates: []model.ShiftTemplate{
			{Name: "早班", StartTime: "09:00", EndTime: "17:00", RequiredRoles: map[string]int{model.RoleGeneral: 1}, IsActive: true},
		},
	}

	out := Normalize(doc)
	if len(out.ShiftTemplates) != 1 || out.ShiftTemplates[0].Name != "早班" {
		t.Errorf("已有模板不应被替换, 实际 %+v", out.ShiftTemplates)
	}
}
