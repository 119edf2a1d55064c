// 端到端接口流程测试：生成排班、统计分析、换班推荐与熔断状态
// 全部走HTTP处理器，不依赖数据库
package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/banbiao/banbiao/internal/handler"
	"github.com/banbiao/banbiao/pkg/engine"
	"github.com/banbiao/banbiao/pkg/engine/breaker"
	"github.com/banbiao/banbiao/pkg/engine/solver"
	"github.com/banbiao/banbiao/pkg/model"
)

func newTestServer(t *testing.T) (*httptest.Server, *breaker.Breaker) {
	t.Helper()

	cfg := solver.DefaultConfig()
	cfg.MaxTime = 3 * time.Second
	cfg.MaxIterations = 800
	cfg.ParallelWorkers = 2
	cfg.PlateauThreshold = 150
	cfg.Seed = 7

	brk := breaker.New(breaker.WithThreshold(3))
	gen := engine.NewGenerator(
		engine.WithSolverConfig(cfg),
		engine.WithBreaker(brk),
	)

	scheduleHandler := handler.NewScheduleHandler(gen, nil, nil, 30*time.Second)
	statsHandler := handler.NewStatsHandler(nil, nil)
	breakerHandler := handler.NewBreakerHandler(brk)
	swapHandler := handler.NewSwapHandler(nil, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)
	mux.HandleFunc("/api/v1/schedule/analyze", scheduleHandler.Analyze)
	mux.HandleFunc("/api/v1/schedule/resolve", scheduleHandler.Resolve)
	mux.HandleFunc("/api/v1/schedule/validate", scheduleHandler.Validate)
	mux.HandleFunc("/api/v1/schedule/swap", swapHandler.Recommend)
	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)
	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.Coverage)
	mux.HandleFunc("/api/v1/breaker", breakerHandler.Status)
	mux.HandleFunc("/api/v1/constraints/presets", handler.ConstraintPresets)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, brk
}

func weekdayConstraints(minStaff, maxStaff int) *model.ConstraintDocument {
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
			{Name: "日班", StartTime: "09:00", EndTime: "17:00", RequiredRoles: map[string]int{model.RoleGeneral: 1}, IsActive: true},
		},
		MaxConsecutiveDays:   6,
		MinRestHours:         8,
		MaxHoursPerWeek:      40,
		MinShiftHours:        4,
		MaxShiftHours:        12,
		OptimizationPriority: model.PriorityBalanceStaffing,
	}
}

func newEmployee(name string) model.Employee {
	return model.Employee{
		BaseModel: model.NewBaseModel(),
		Name:      name,
		Role:      model.RoleEmployee,
		IsActive:  true,
	}
}

func postJSON(t *testing.T, url string, payload interface{}, out interface{}) int {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("序列化请求失败: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("解析响应失败: %v", err)
		}
	}
	return resp.StatusCode
}

// 2026-09-07 至 2026-09-11 为周一至周五

func TestFullSchedulingFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	emp1 := newEmployee("张伟")
	emp2 := newEmployee("李娜")
	employees := []model.Employee{emp1, emp2}
	doc := weekdayConstraints(1, 2)

	// 第一步：冲突分析
	var analyze handler.AnalyzeResponse
	code := postJSON(t, srv.URL+"/api/v1/schedule/analyze", handler.AnalyzeRequest{
		Constraints: doc,
		Employees:   employees,
	}, &analyze)
	if code != http.StatusOK {
		t.Fatalf("分析状态码 = %d, 期望 200", code)
	}
	if analyze.Report == nil || !analyze.Report.CanProceed {
		t.Fatal("期望约束分析通过")
	}

	// 第二步：生成排班
	var generate handler.GenerateResponse
	code = postJSON(t, srv.URL+"/api/v1/schedule/generate", handler.GenerateRequest{
		Constraints: doc,
		StartDate:   "2026-09-07",
		EndDate:     "2026-09-11",
		Employees:   employees,
	}, &generate)
	if code != http.StatusOK {
		t.Fatalf("生成状态码 = %d, 期望 200", code)
	}
	if !generate.Success {
		t.Fatalf("生成失败: %s", generate.Message)
	}
	if len(generate.Assignments) == 0 {
		t.Fatal("期望生成排班")
	}
	if generate.Compliance == nil || !generate.Compliance.IsCompliant {
		t.Error("期望生成的排班合规")
	}

	// 第三步：合规校验接口复核同一份排班
	var report struct {
		IsCompliant bool `json:"is_compliant"`
	}
	code = postJSON(t, srv.URL+"/api/v1/schedule/validate", handler.ValidateRequest{
		Constraints: doc,
		Assignments: generate.Assignments,
	}, &report)
	if code != http.StatusOK || !report.IsCompliant {
		t.Errorf("校验状态码 = %d, 合规 = %v, 期望 200/true", code, report.IsCompliant)
	}

	// 第四步：公平性统计
	var fairness handler.FairnessResponse
	code = postJSON(t, srv.URL+"/api/v1/stats/fairness", handler.StatsRequest{
		Employees:   employees,
		Assignments: generate.Assignments,
	}, &fairness)
	if code != http.StatusOK || fairness.Data == nil {
		t.Fatalf("公平性状态码 = %d, 期望 200", code)
	}

	// 第五步：覆盖率统计
	var coverage handler.CoverageResponse
	code = postJSON(t, srv.URL+"/api/v1/stats/coverage", handler.StatsRequest{
		StartDate:   "2026-09-07",
		EndDate:     "2026-09-11",
		Constraints: doc,
		Assignments: generate.Assignments,
	}, &coverage)
	if code != http.StatusOK || coverage.Data == nil {
		t.Fatalf("覆盖率状态码 = %d, 期望 200", code)
	}
	if coverage.Data.OverallCoverage < 100 {
		t.Errorf("覆盖率 = %.1f, 期望 100", coverage.Data.OverallCoverage)
	}

	// 第六步：为第一条排班找接替人选
	first := generate.Assignments[0]
	var swapResp handler.SwapResponse
	code = postJSON(t, srv.URL+"/api/v1/schedule/swap", handler.SwapRequest{
		Constraints: doc,
		EmployeeID:  first.EmployeeID,
		Date:        first.Date,
		Employees:   employees,
		Assignments: generate.Assignments,
	}, &swapResp)
	if code != http.StatusOK {
		t.Fatalf("换班推荐状态码 = %d, 期望 200", code)
	}
}

func TestClosedWeekResolveFlow(t *testing.T) {
	// 全周停业时生成接口应拒绝并保留建议，人工修复后方可生成
	srv, _ := newTestServer(t)

	employees := []model.Employee{newEmployee("王芳")}
	doc := weekdayConstraints(1, 2)
	for i := range doc.OperatingHours {
		doc.OperatingHours[i].IsOpen = false
	}

	var generate handler.GenerateResponse
	code := postJSON(t, srv.URL+"/api/v1/schedule/generate", handler.GenerateRequest{
		Constraints: doc,
		StartDate:   "2026-09-07",
		EndDate:     "2026-09-11",
		Employees:   employees,
	}, &generate)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("全周停业的生成状态码 = %d, 期望 422", code)
	}
	if generate.Success || len(generate.Assignments) != 0 {
		t.Fatalf("全周停业不应生成排班: %+v", generate)
	}
	if generate.Conflicts == nil || generate.Conflicts.CriticalCount == 0 {
		t.Fatal("响应中应包含无营业日的严重冲突")
	}

	var resolve handler.ResolveResponse
	code = postJSON(t, srv.URL+"/api/v1/schedule/resolve", handler.ResolveRequest{
		Constraints: doc,
		Employees:   employees,
	}, &resolve)
	if code != http.StatusOK {
		t.Fatalf("修复状态码 = %d, 期望 200", code)
	}
	if len(resolve.AppliedFixes) == 0 || resolve.Constraints == nil {
		t.Fatalf("修复接口应返回启用营业日后的约束: %+v", resolve)
	}

	code = postJSON(t, srv.URL+"/api/v1/schedule/generate", handler.GenerateRequest{
		Constraints: resolve.Constraints,
		StartDate:   "2026-09-07",
		EndDate:     "2026-09-11",
		Employees:   employees,
	}, &generate)
	if code != http.StatusOK || !generate.Success {
		t.Fatalf("修复后的生成应成功: 状态码 %d, %+v", code, generate)
	}
	if len(generate.Assignments) != 5 {
		t.Errorf("排班数 = %d, 期望 5", len(generate.Assignments))
	}
}

func TestBreakerStatusEndpoint(t *testing.T) {
	srv, brk := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/breaker")
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	var status handler.BreakerStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if status.State != breaker.StateClosed.String() {
		t.Errorf("初始熔断状态 = %s, 期望 %s", status.State, breaker.StateClosed)
	}
	if brk.Failures() != 0 {
		t.Errorf("初始失败计数 = %d, 期望 0", brk.Failures())
	}
}

func TestPresetsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/constraints/presets")
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Presets []struct {
			Scenario string                    `json:"scenario"`
			Document *model.ConstraintDocument `json:"document"`
		} `json:"presets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if len(payload.Presets) == 0 {
		t.Fatal("期望返回预设列表")
	}
	for _, p := range payload.Presets {
		if p.Document == nil {
			t.Errorf("预设 %s 缺少约束文档", p.Scenario)
			continue
		}
		if err := p.Document.Validate(); err != nil {
			t.Errorf("预设 %s 的约束文档无效: %v", p.Scenario, err)
		}
	}
}

func TestGenerateRejectsInvalidPayload(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/v1/schedule/generate", "application/json", bytes.NewReader([]byte(`{`)))
	if err != nil {
		t.Fatalf("请求失败: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("状态码 = %d, 期望 400", resp.StatusCode)
	}
}
