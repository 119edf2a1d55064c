// Package engine 提供约束驱动的排班生成引擎
//
// 生成流程：约束归一化 → 员工筛选 → 冲突检测与自动修复 →
// 优化求解（失败时放宽约束重试一次）→ 启发式兜底 → 合规校验。
// 求解器由熔断器保护，连续失败后直接走兜底路径。
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/banbiao/banbiao/pkg/engine/breaker"
	"github.com/banbiao/banbiao/pkg/engine/compliance"
	"github.com/banbiao/banbiao/pkg/engine/conflict"
	"github.com/banbiao/banbiao/pkg/engine/fallback"
	"github.com/banbiao/banbiao/pkg/engine/normalize"
	"github.com/banbiao/banbiao/pkg/engine/roster"
	"github.com/banbiao/banbiao/pkg/engine/solver"
	"github.com/banbiao/banbiao/pkg/errors"
	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
)

// 生成方法标识
const (
	MethodSolver        = "solver"
	MethodSolverRelaxed = "solver_relaxed"
	MethodFallback      = "fallback"
	MethodNone          = "none"
)

// 放宽重试的约束调整幅度
const (
	relaxMinStaffFloor   = 1
	relaxConsecutiveCap  = 7
	relaxRestFloor       = 8
	relaxWeeklyHoursStep = 8
	relaxBudgetCeiling   = 60 * time.Second
)

// Request 排班生成请求
type Request struct {
	Constraints *model.ConstraintDocument
	Employees   []model.Employee
	Period      model.DateRange
}

// Result 排班生成结果及诊断信息
type Result struct {
	RunID        string                `json:"run_id"`
	Assignments  []model.Assignment    `json:"assignments"`
	Method       string                `json:"method"`
	Conflicts    *model.ConflictReport `json:"conflicts,omitempty"`
	AppliedFixes []conflict.AppliedFix `json:"applied_fixes,omitempty"`
	Compliance   *compliance.Report    `json:"compliance,omitempty"`
	Elapsed      time.Duration         `json:"elapsed_ms"`
}

// Generator 排班生成器
type Generator struct {
	breaker   *breaker.Breaker
	fallback  *fallback.Scheduler
	solverCfg *solver.Config
	log       *logger.EngineLogger
}

// Option 生成器可选配置
type Option func(*Generator)

// WithBreaker 使用外部熔断器（便于跨请求共享状态）
func WithBreaker(b *breaker.Breaker) Option {
	return func(g *Generator) { g.breaker = b }
}

// WithSolverConfig 自定义求解配置
func WithSolverConfig(cfg *solver.Config) Option {
	return func(g *Generator) { g.solverCfg = cfg }
}

// WithFallbackScheduler 使用外部兜底排班器（测试中注入固定随机源）
func WithFallbackScheduler(s *fallback.Scheduler) Option {
	return func(g *Generator) { g.fallback = s }
}

// NewGenerator 创建排班生成器
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		breaker:   breaker.New(),
		fallback:  fallback.New(),
		solverCfg: solver.DefaultConfig(),
		log:       logger.NewEngineLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Breaker 返回生成器使用的熔断器
func (g *Generator) Breaker() *breaker.Breaker {
	return g.breaker
}

// Generate 执行一次完整的排班生成
//
// 严重冲突在自动修复后仍未消除时不会生成排班，结果中保留冲突报告供调用方展示。
// 合规校验只产出报告，不回滚已生成的排班。
func (g *Generator) Generate(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()

	if req == nil || req.Constraints == nil {
		return nil, errors.New(errors.CodeInvalidInput, "缺少排班约束")
	}
	dates := req.Period.Days()
	if len(dates) == 0 {
		return nil, errors.New(errors.CodeInvalidTimeRange, "排班周期为空或起止日期颠倒")
	}

	doc := normalize.Normalize(req.Constraints)
	if err := doc.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidInput, "约束校验失败")
	}

	g.log.StartGeneration(runID, len(req.Employees), len(dates))

	result := &Result{RunID: runID, Method: MethodNone}

	// 筛选依据调用方的原始约束，归一化注入的默认组织维度不参与筛选
	eligible := roster.Filter(req.Employees, req.Constraints)
	if len(eligible) == 0 {
		result.Conflicts = conflict.Detect(doc, req.Employees)
		result.Compliance = compliance.Validate(nil, doc)
		result.Elapsed = time.Since(start)
		return result, errors.NoEligibleEmployees("筛选后无可排班员工")
	}

	// 冲突检测，严重冲突先尝试自动修复再复检
	report := conflict.Detect(doc, eligible)
	var fixes []conflict.AppliedFix
	if report.HasCritical() && report.AutoFixableCount > 0 {
		doc, fixes = conflict.Resolve(doc, report)
		report = conflict.Detect(doc, eligible)
	}
	g.log.ConflictsDetected(runID, report.CriticalCount, report.WarningCount, len(fixes))
	result.Conflicts = report
	result.AppliedFixes = fixes

	if report.HasCritical() {
		result.Compliance = compliance.Validate(nil, doc)
		result.Elapsed = time.Since(start)
		return result, errors.GenerationFailed("存在无法自动修复的严重冲突")
	}

	assignments, method := g.produce(ctx, runID, doc, eligible, dates)
	if ctx.Err() != nil {
		return nil, errors.Wrap(ctx.Err(), errors.CodeTimeout, "排班生成被中断")
	}

	result.Assignments = assignments
	result.Method = method
	result.Compliance = compliance.Validate(assignments, doc)
	result.Elapsed = time.Since(start)

	g.log.GenerationComplete(runID, method, len(assignments), result.Elapsed)
	return result, nil
}

// produce 选择生成路径：熔断器放行时先走求解器，否则直接兜底
func (g *Generator) produce(ctx context.Context, runID string, doc *model.ConstraintDocument, eligible []model.Employee, dates []string) ([]model.Assignment, string) {
	if !g.breaker.Allow() {
		g.log.FallbackEngaged(runID, "熔断器开启，跳过求解器")
		return g.fallback.Generate(doc, eligible, dates), MethodFallback
	}

	if res, err := solver.New(g.solverCfg).Solve(ctx, doc, eligible, dates); err == nil && res.Feasible {
		g.breaker.RecordSuccess()
		return res.Assignments, MethodSolver
	}
	if ctx.Err() != nil {
		g.breaker.RecordFailure()
		return nil, MethodNone
	}

	// 放宽约束重试一次
	relaxed := relaxConstraints(doc)
	cfg := relaxedConfig(g.solverCfg)
	if res, err := solver.New(cfg).Solve(ctx, relaxed, eligible, dates); err == nil && res.Feasible {
		g.breaker.RecordSuccess()
		g.log.SolverOutcome(runID, MethodSolverRelaxed, len(res.Assignments), res.Elapsed)
		return res.Assignments, MethodSolverRelaxed
	}

	g.breaker.RecordFailure()
	g.log.FallbackEngaged(runID, "求解器未找到可行解")
	return g.fallback.Generate(doc, eligible, dates), MethodFallback
}

// relaxConstraints 返回放宽后的约束副本
// 每日最低人数降一（不低于1），连续上班上限加一（至多7天），
// 最短休息减两小时（不低于8），每周工时上限加八小时
func relaxConstraints(doc *model.ConstraintDocument) *model.ConstraintDocument {
	relaxed := doc.Clone()
	for i := range relaxed.OperatingHours {
		day := &relaxed.OperatingHours[i]
		if day.IsOpen && day.MinStaff > relaxMinStaffFloor {
			day.MinStaff--
		}
	}
	if relaxed.MaxConsecutiveDays < relaxConsecutiveCap {
		relaxed.MaxConsecutiveDays++
	}
	if relaxed.MinRestHours-2 >= relaxRestFloor {
		relaxed.MinRestHours -= 2
	}
	relaxed.MaxHoursPerWeek += relaxWeeklyHoursStep
	return relaxed
}

// relaxedConfig 重试时加倍时间预算，上限60秒
func relaxedConfig(base *solver.Config) *solver.Config {
	cfg := *base
	cfg.MaxTime *= 2
	if cfg.MaxTime > relaxBudgetCeiling {
		cfg.MaxTime = relaxBudgetCeiling
	}
	return &cfg
}
