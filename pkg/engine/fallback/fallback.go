package fallback

import (
	"math/rand"
	"sort"
	"time"

	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
)

// 同类班次的短期防重复窗口（天）
const antiRepeatDays = 3

// Scheduler 逐日贪心兜底排班器
// 随机源可注入，便于测试获得确定性结果
type Scheduler struct {
	rng *rand.Rand
	log *logger.EngineLogger
}

// Option 构造选项
type Option func(*Scheduler)

// WithRand 注入随机源
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// New 创建兜底排班器
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: logger.NewEngineLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate 逐日生成排班
// 每天的目标人数为 clamp(可用人数, 最少, 最多)；当天目标未满只记录缺口，
// 日循环始终前进，保证终止
func (s *Scheduler) Generate(doc *model.ConstraintDocument, employees []model.Employee, dates []string) []model.Assignment {
	ledger := NewLedger()
	var assignments []model.Assignment

	templates := doc.ActiveTemplates()
	if len(templates) == 0 {
		logger.Warn().Msg("没有可用的班次模板，兜底排班无法进行")
		return nil
	}

	for _, date := range dates {
		day := model.Weekday(date)
		oh := doc.HoursFor(day)
		if oh == nil || !oh.IsOpen || oh.MinStaff <= 0 {
			continue
		}

		available := availableToday(employees, day)
		if len(available) == 0 {
			logger.Warn().Str("date", date).Msg("当天没有可用员工，跳过")
			continue
		}

		target := len(available)
		if target >= oh.MinStaff {
			target = clamp(len(available), oh.MinStaff, oh.MaxStaff)
		} else {
			logger.Warn().
				Str("date", date).
				Int("required", oh.MinStaff).
				Int("available", len(available)).
				Msg("可用人数不足以满足最少人数要求，按可用人数排班")
		}

		pool := s.filterByCaps(available, ledger, date, doc, oh.MinStaff)
		dayAssignments := s.scheduleDay(doc, templates, pool, ledger, date, target, assignments)
		assignments = append(assignments, dayAssignments...)

		if len(dayAssignments) < target {
			logger.Warn().
				Str("date", date).
				Int("target", target).
				Int("assigned", len(dayAssignments)).
				Msg("当天目标人数未满")
		}
	}

	model.SortAssignments(assignments)
	return assignments
}

func availableToday(employees []model.Employee, day time.Weekday) []model.Employee {
	var out []model.Employee
	for _, emp := range employees {
		if emp.Schedulable() && emp.AvailableOnDay(day) {
			out = append(out, emp)
		}
	}
	return out
}

// filterByCaps 剔除已触及连续天数或周时长上限的员工
// 剔除后不足最少人数时放弃过滤，按需放松约束
func (s *Scheduler) filterByCaps(available []model.Employee, ledger *Ledger, date string, doc *model.ConstraintDocument, minStaff int) []model.Employee {
	var filtered []model.Employee
	for _, emp := range available {
		id := emp.ID.String()
		if ledger.ConsecutiveDays(id) >= doc.MaxConsecutiveDays {
			continue
		}
		if ledger.WeeklyHours(id) >= doc.MaxHoursPerWeek {
			continue
		}
		filtered = append(filtered, emp)
	}

	if len(filtered) < minStaff {
		logger.Warn().
			Str("date", date).
			Int("filtered", len(filtered)).
			Int("required", minStaff).
			Msg("约束过滤后人数不足，放松约束使用全部可用员工")
		return available
	}
	return filtered
}

// scheduleDay 按模板与角色轮转填满当天目标人数
func (s *Scheduler) scheduleDay(doc *model.ConstraintDocument, templates []model.ShiftTemplate, pool []model.Employee, ledger *Ledger, date string, target int, prior []model.Assignment) []model.Assignment {
	remaining := append([]model.Employee(nil), pool...)
	var out []model.Assignment

	templateIdx := 0
	for len(out) < target && len(remaining) > 0 {
		tmpl := templates[templateIdx%len(templates)]
		templateIdx++

		slots := tmpl.RoleSlots()
		role := slots[len(out)%len(slots)]

		candidates, role := s.candidatesFor(remaining, role, doc)
		if len(candidates) == 0 {
			break
		}

		candidates = s.antiRepeat(candidates, role, date, prior, out)
		chosen := s.pickFairest(candidates, ledger)

		out = append(out, s.buildAssignment(chosen, tmpl, role, date, doc))
		ledger.Record(chosen.ID.String(), date, tmpl.DurationHours())
		remaining = removeEmployee(remaining, chosen.ID.String())
	}

	return out
}

// candidatesFor 选出能胜任该角色槽位的候选人
// 专才不足时依次退化：管理角色互通、技能匹配、最终回退全员按 general 处理
func (s *Scheduler) candidatesFor(remaining []model.Employee, role string, doc *model.ConstraintDocument) ([]model.Employee, string) {
	var candidates []model.Employee
	for _, emp := range remaining {
		if emp.Role == role {
			candidates = append(candidates, emp)
		}
	}

	if len(candidates) == 0 && role == model.RoleManager {
		for _, emp := range remaining {
			if emp.IsManager() {
				candidates = append(candidates, emp)
			}
		}
	}

	if len(candidates) == 0 && role != model.RoleGeneral {
		for _, req := range doc.SkillRequirements {
			if req.Role != role {
				continue
			}
			for _, emp := range remaining {
				if emp.HasAllSkills(req.RequiredSkills) {
					candidates = append(candidates, emp)
				}
			}
			if len(candidates) > 0 {
				break
			}
		}
	}

	if len(candidates) == 0 {
		candidates = append(candidates, remaining...)
		role = model.RoleGeneral
	}
	return candidates, role
}

// antiRepeat 近3天内做过同角色班次的员工让位给其他候选人
// 仅在候选人充足时生效，避免把排班逼入死角
func (s *Scheduler) antiRepeat(candidates []model.Employee, role, date string, prior, today []model.Assignment) []model.Employee {
	if len(candidates) <= 2 {
		return candidates
	}

	cutoff := recentCutoff(date)
	recent := make(map[string]bool)
	for _, a := range prior {
		if a.Date >= cutoff && a.Role == role {
			recent[a.EmployeeID] = true
		}
	}
	for _, a := range today {
		if a.Role == role {
			recent[a.EmployeeID] = true
		}
	}
	if len(recent) == 0 || len(candidates) <= len(recent) {
		return candidates
	}

	var fresh []model.Employee
	for _, emp := range candidates {
		if !recent[emp.ID.String()] {
			fresh = append(fresh, emp)
		}
	}
	if len(fresh) == 0 {
		return candidates
	}
	return fresh
}

func recentCutoff(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, -antiRepeatDays).Format("2006-01-02")
}

// pickFairest 公平分数升序排序后，在负载最轻的前一半里做加权随机
// 权重 1/(score+1)，分数越低中选概率越大
func (s *Scheduler) pickFairest(candidates []model.Employee, ledger *Ledger) model.Employee {
	if len(candidates) == 1 {
		return candidates[0]
	}

	type scored struct {
		emp   model.Employee
		score float64
	}
	ranked := make([]scored, len(candidates))
	for i, emp := range candidates {
		ranked[i] = scored{emp: emp, score: ledger.Score(emp.ID.String())}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score < ranked[j].score
	})

	top := len(ranked) / 2
	if top < 1 {
		top = 1
	}
	ranked = ranked[:top]

	total := 0.0
	weights := make([]float64, len(ranked))
	for i, r := range ranked {
		weights[i] = 1.0 / (r.score + 1)
		total += weights[i]
	}

	pick := s.rng.Float64() * total
	for i, w := range weights {
		pick -= w
		if pick <= 0 {
			return ranked[i].emp
		}
	}
	return ranked[len(ranked)-1].emp
}

func (s *Scheduler) buildAssignment(emp model.Employee, tmpl model.ShiftTemplate, role, date string, doc *model.ConstraintDocument) model.Assignment {
	location := emp.Location
	if location == "" && len(doc.Locations) > 0 {
		location = doc.Locations[s.rng.Intn(len(doc.Locations))]
	}

	department := emp.Department
	if !contains(doc.Departments, department) && len(doc.Departments) > 0 {
		department = doc.Departments[s.rng.Intn(len(doc.Departments))]
	}

	return model.Assignment{
		BaseModel:    model.NewBaseModel(),
		EmployeeID:   emp.ID.String(),
		EmployeeName: emp.Name,
		Date:         date,
		StartTime:    tmpl.StartTime,
		EndTime:      tmpl.EndTime,
		Role:         role,
		Department:   department,
		Location:     location,
		TemplateName: tmpl.Name,
		Status:       model.StatusScheduled,
		Note:         "heuristic fallback",
	}
}

func removeEmployee(list []model.Employee, id string) []model.Employee {
	for i, emp := range list {
		if emp.ID.String() == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
