package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/banbiao/banbiao/pkg/engine"
	"github.com/banbiao/banbiao/pkg/engine/breaker"
	"github.com/banbiao/banbiao/pkg/engine/solver"
	"github.com/banbiao/banbiao/pkg/model"
)

func testDoc(minStaff, maxStaff int) *model.ConstraintDocument {
	hours := make([]model.OperatingHours, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		hours[d] = model.OperatingHours{
			DayOfWeek: d,
			IsOpen:    d >= time.Monday && d <= time.Friday,
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
		MaxConsecutiveDays:   6,
		MinRestHours:         8,
		MaxHoursPerWeek:      40,
		MinShiftHours:        4,
		MaxShiftHours:        12,
		OptimizationPriority: model.PriorityBalanceStaffing,
	}
}

func testEmployee(name, role string) model.Employee {
	return model.Employee{
		BaseModel:  model.NewBaseModel(),
		Name:       name,
		Role:       role,
		Department: "Operations",
		Location:   "Main Office",
		IsActive:   true,
	}
}

func testScheduleHandler(opts ...engine.Option) *ScheduleHandler {
	cfg := solver.DefaultConfig()
	cfg.MaxTime = 2 * time.Second
	cfg.MaxIterations = 500
	cfg.ParallelWorkers = 2
	cfg.PlateauThreshold = 100
	cfg.Seed = 42
	gen := engine.NewGenerator(append([]engine.Option{engine.WithSolverConfig(cfg)}, opts...)...)
	return NewScheduleHandler(gen, nil, nil, 30*time.Second)
}

func postJSON(t *testing.T, handlerFn http.HandlerFunc, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("序列化请求失败: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerFn(rec, req)
	return rec
}

func TestGenerateEndpoint(t *testing.T) {
	h := testScheduleHandler()

	rec := postJSON(t, h.Generate, "/api/v1/schedule/generate", GenerateRequest{
		Constraints: testDoc(1, 1),
		StartDate:   "2026-09-07",
		EndDate:     "2026-09-11",
		Employees:   []model.Employee{testEmployee("张伟", model.RoleEmployee)},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 期望 200, 响应: %s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if !resp.Success {
		t.Error("期望 success = true")
	}
	if resp.RunID == "" {
		t.Error("期望返回 run_id")
	}
	if len(resp.Assignments) != 5 {
		t.Errorf("排班数 = %d, 期望 5", len(resp.Assignments))
	}
	if resp.Compliance == nil || !resp.Compliance.IsCompliant {
		t.Error("期望返回合规的排班")
	}
}

func TestGenerateEndpointValidation(t *testing.T) {
	h := testScheduleHandler()

	cases := []struct {
		name string
		req  GenerateRequest
	}{
		{"缺少约束文档", GenerateRequest{StartDate: "2026-09-07", EndDate: "2026-09-11"}},
		{"缺少开始日期", GenerateRequest{Constraints: testDoc(1, 1), EndDate: "2026-09-11"}},
		{"日期格式无效", GenerateRequest{Constraints: testDoc(1, 1), StartDate: "09/07/2026", EndDate: "2026-09-11"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.Generate, "/api/v1/schedule/generate", tc.req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("状态码 = %d, 期望 400", rec.Code)
			}
		})
	}
}

func TestGenerateEndpointMethodNotAllowed(t *testing.T) {
	h := testScheduleHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/schedule/generate", nil)
	rec := httptest.NewRecorder()
	h.Generate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("状态码 = %d, 期望 400", rec.Code)
	}
}

func TestGenerateEndpointNoEligibleEmployees(t *testing.T) {
	h := testScheduleHandler()

	doc := testDoc(1, 1)
	doc.Roles = []string{model.RoleManager}

	rec := postJSON(t, h.Generate, "/api/v1/schedule/generate", GenerateRequest{
		Constraints: doc,
		StartDate:   "2026-09-07",
		EndDate:     "2026-09-11",
		Employees:   []model.Employee{testEmployee("李娜", model.RoleEmployee)},
	})

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("状态码 = %d, 期望 422, 响应: %s", rec.Code, rec.Body.String())
	}

	var resp GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Success {
		t.Error("期望 success = false")
	}
	if len(resp.Assignments) != 0 {
		t.Errorf("排班数 = %d, 期望 0", len(resp.Assignments))
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := testScheduleHandler()

	doc := testDoc(3, 4)

	rec := postJSON(t, h.Analyze, "/api/v1/schedule/analyze", AnalyzeRequest{
		Constraints: doc,
		Employees: []model.Employee{
			testEmployee("张伟", model.RoleEmployee),
			testEmployee("李娜", model.RoleEmployee),
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 期望 200, 响应: %s", rec.Code, rec.Body.String())
	}

	var resp AnalyzeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if resp.Report == nil {
		t.Fatal("期望返回冲突报告")
	}
	// 2名员工无法满足每日3人的需求，应检出人手不足冲突
	if resp.Report.CriticalCount == 0 {
		t.Error("期望检出critical冲突")
	}
	if resp.EligibleCount != 2 {
		t.Errorf("合格员工数 = %d, 期望 2", resp.EligibleCount)
	}
}

func TestResolveEndpoint(t *testing.T) {
	// 全周停业的约束经人工确认修复后应启用默认营业日
	h := testScheduleHandler()

	doc := testDoc(1, 2)
	for i := range doc.OperatingHours {
		doc.OperatingHours[i].IsOpen = false
	}

	rec := postJSON(t, h.Resolve, "/api/v1/schedule/resolve", ResolveRequest{
		Constraints: doc,
		Employees: []model.Employee{
			testEmployee("张伟", model.RoleEmployee),
		},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 期望 200, 响应: %s", rec.Code, rec.Body.String())
	}

	var resp ResolveResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if len(resp.AppliedFixes) == 0 {
		t.Fatal("期望至少执行一项修复")
	}
	if resp.Constraints == nil || len(resp.Constraints.OpenDays()) != 5 {
		t.Errorf("修复后应启用周一至周五: %+v", resp.Constraints)
	}
	if resp.Report == nil || !resp.Report.CanProceed {
		t.Errorf("复检后应可继续排班: %+v", resp.Report)
	}
}

func TestValidateEndpoint(t *testing.T) {
	h := testScheduleHandler()

	emp := testEmployee("张伟", model.RoleEmployee)
	assignments := []model.Assignment{
		{
			BaseModel:  model.NewBaseModel(),
			EmployeeID: emp.ID.String(),
			Date:       "2026-09-07",
			StartTime:  "09:00",
			EndTime:    "17:00",
			Status:     model.StatusScheduled,
		},
	}

	rec := postJSON(t, h.Validate, "/api/v1/schedule/validate", ValidateRequest{
		Constraints: testDoc(1, 1),
		Assignments: assignments,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 期望 200", rec.Code)
	}

	var report struct {
		IsCompliant    bool    `json:"is_compliant"`
		ComplianceRate float64 `json:"compliance_rate"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if !report.IsCompliant {
		t.Error("期望排班合规")
	}
	if report.ComplianceRate != 100 {
		t.Errorf("合规率 = %.1f, 期望 100", report.ComplianceRate)
	}
}

func TestBreakerEndpoints(t *testing.T) {
	b := breaker.New(breaker.WithThreshold(2))
	b.RecordFailure()
	b.RecordFailure()
	h := NewBreakerHandler(b)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/breaker", nil)
	rec := httptest.NewRecorder()
	h.Status(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("状态码 = %d, 期望 200", rec.Code)
	}
	var status BreakerStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if status.State != breaker.StateOpen.String() {
		t.Errorf("熔断状态 = %s, 期望 %s", status.State, breaker.StateOpen)
	}
	if status.Allowing {
		t.Error("熔断打开时不应放行")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/breaker/reset", nil)
	rec = httptest.NewRecorder()
	h.Reset(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("复位状态码 = %d, 期望 200", rec.Code)
	}
	if b.State() != breaker.StateClosed {
		t.Errorf("复位后状态 = %s, 期望 %s", b.State(), breaker.StateClosed)
	}
}
