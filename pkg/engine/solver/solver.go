package solver

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/banbiao/banbiao/pkg/model"
)

// Config 求解配置
type Config struct {
	MaxIterations    int           `json:"max_iterations"`
	MaxTime          time.Duration `json:"max_time"`
	InitialTemp      float64       `json:"initial_temp"`
	CoolingRate      float64       `json:"cooling_rate"`
	TabuSize         int           `json:"tabu_size"`
	NeighborhoodSize int           `json:"neighborhood_size"`
	ParallelWorkers  int           `json:"parallel_workers"`
	PlateauThreshold int           `json:"plateau_threshold"`
	Seed             int64         `json:"seed,omitempty"`
}

// DefaultConfig 默认求解配置
func DefaultConfig() *Config {
	return &Config{
		MaxIterations:    2000,
		MaxTime:          30 * time.Second,
		InitialTemp:      100.0,
		CoolingRate:      0.99,
		TabuSize:         50,
		NeighborhoodSize: 20,
		ParallelWorkers:  4,
		PlateauThreshold: 200,
	}
}

// Result 求解结果
// 不可行时排班列表为空，由调用方决定放松重试或转入兜底
type Result struct {
	Assignments []model.Assignment
	Feasible    bool
	Score       float64
	Elapsed     time.Duration
}

// Solver 优化排班求解器
type Solver struct {
	cfg *Config
	log *logger.EngineLogger
}

// New 创建求解器
func New(cfg *Config) *Solver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Solver{cfg: cfg, log: logger.NewEngineLogger()}
}

// Solve 在时间预算内求解
// 多个工作协程各自独立搜索，取其中最优；除最优或可行外的任何结果都视为失败
func (s *Solver) Solve(ctx context.Context, doc *model.ConstraintDocument, employees []model.Employee, dates []string) (*Result, error) {
	start := time.Now()

	m := Build(doc, employees, dates)
	if len(m.Vars) == 0 {
		return &Result{Feasible: false, Elapsed: time.Since(start)}, nil
	}

	deadline := start.Add(s.cfg.MaxTime)
	workers := s.cfg.ParallelWorkers
	if workers < 1 {
		workers = 1
	}

	results := make([]*Solution, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			seed := s.cfg.Seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			rng := rand.New(rand.NewSource(seed + int64(w)*7919))
			results[w] = s.search(ctx, m, rng, deadline)
		}(w)
	}
	wg.Wait()

	var best *Solution
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.Score < best.Score {
			best = r
		}
	}

	elapsed := time.Since(start)
	if best == nil || !best.Feasible {
		logger.Warn().
			Dur("elapsed", elapsed).
			Int("vars", len(m.Vars)).
			Msg("优化求解未找到可行解")
		return &Result{Feasible: false, Elapsed: elapsed}, nil
	}

	assignments := m.materialize(best)
	model.SortAssignments(assignments)

	logger.Info().
		Dur("elapsed", elapsed).
		Int("assignments", len(assignments)).
		Float64("score", best.Score).
		Msg("优化求解完成")

	return &Result{
		Assignments: assignments,
		Feasible:    true,
		Score:       best.Score,
		Elapsed:     elapsed,
	}, nil
}

// search 单个工作协程的模拟退火搜索
func (s *Solver) search(ctx context.Context, m *Model, rng *rand.Rand, deadline time.Time) *Solution {
	current := m.greedySeed(rng)
	m.Evaluate(current)
	best := current.Clone()

	tabu := newTabuList(s.cfg.TabuSize)
	temperature := s.cfg.InitialTemp
	noImprovement := 0

	for i := 0; i < s.cfg.MaxIterations; i++ {
		select {
		case <-ctx.Done():
			return best
		default:
		}
		if time.Now().After(deadline) {
			break
		}

		neighbor := m.bestNeighbor(current, rng, s.cfg.NeighborhoodSize)
		if neighbor == nil {
			continue
		}

		key := hashPicks(neighbor.Picks)
		accept := false
		if neighbor.Score < current.Score {
			accept = true
		} else if !tabu.contains(key) {
			delta := neighbor.Score - current.Score
			if rng.Float64() < boltzmann(delta, temperature) {
				accept = true
			}
		}

		if accept {
			current = neighbor
			tabu.add(key)
			if current.Score < best.Score {
				best = current.Clone()
				noImprovement = 0
			} else {
				noImprovement++
			}
		} else {
			noImprovement++
		}

		if noImprovement >= s.cfg.PlateauThreshold {
			break
		}
		temperature *= s.cfg.CoolingRate
	}

	return best
}

// greedySeed 逐日贪心构造初始解
// 每个开放日尽量选满最少人数，保持每员工每天至多一班
func (m *Model) greedySeed(rng *rand.Rand) *Solution {
	s := &Solution{}
	workDays := make(map[int]int)

	for _, di := range m.openDays {
		oh := m.Doc.HoursFor(model.Weekday(m.Dates[di]))
		used := make(map[int]bool)

		vars := append([]int(nil), m.byDate[di]...)
		rng.Shuffle(len(vars), func(i, j int) { vars[i], vars[j] = vars[j], vars[i] })

		// 负载轻的员工优先，贴近公平目标
		for len(used) < oh.MinStaff {
			bestVar := -1
			bestLoad := 0
			for _, vi := range vars {
				v := m.Vars[vi]
				if used[v.Emp] {
					continue
				}
				if bestVar == -1 || workDays[v.Emp] < bestLoad {
					bestVar = vi
					bestLoad = workDays[m.Vars[vi].Emp]
				}
			}
			if bestVar == -1 {
				break
			}
			v := m.Vars[bestVar]
			s.Picks = append(s.Picks, bestVar)
			used[v.Emp] = true
			workDays[v.Emp]++
		}
	}
	return s
}

// bestNeighbor 生成一批邻域解并返回其中分数最低者
func (m *Model) bestNeighbor(current *Solution, rng *rand.Rand, size int) *Solution {
	var best *Solution
	for i := 0; i < size; i++ {
		n := m.mutate(current, rng)
		if n == nil {
			continue
		}
		m.Evaluate(n)
		if best == nil || n.Score < best.Score {
			best = n
		}
	}
	return best
}

// mutate 随机做一次增、删或换人移动
func (m *Model) mutate(current *Solution, rng *rand.Rand) *Solution {
	n := current.Clone()

	switch rng.Intn(3) {
	case 0: // 增加一个未选变量
		if len(m.Vars) == 0 {
			return nil
		}
		vi := rng.Intn(len(m.Vars))
		if n.has(vi) || n.empBusy(m, m.Vars[vi].Emp, m.Vars[vi].Date) {
			return nil
		}
		n.Picks = append(n.Picks, vi)
	case 1: // 删除一个已选变量
		if len(n.Picks) == 0 {
			return nil
		}
		i := rng.Intn(len(n.Picks))
		n.Picks = append(n.Picks[:i], n.Picks[i+1:]...)
	default: // 同日同模板换人
		if len(n.Picks) == 0 {
			return nil
		}
		i := rng.Intn(len(n.Picks))
		old := m.Vars[n.Picks[i]]
		candidates := m.byDate[old.Date]
		if len(candidates) == 0 {
			return nil
		}
		vi := candidates[rng.Intn(len(candidates))]
		v := m.Vars[vi]
		if v.Emp == old.Emp || n.empBusy(m, v.Emp, v.Date) {
			return nil
		}
		n.Picks[i] = vi
	}
	return n
}

func (s *Solution) has(vi int) bool {
	for _, p := range s.Picks {
		if p == vi {
			return true
		}
	}
	return false
}

func (s *Solution) empBusy(m *Model, ei, di int) bool {
	for _, p := range s.Picks {
		v := m.Vars[p]
		if v.Emp == ei && v.Date == di {
			return true
		}
	}
	return false
}

// materialize 把选中的变量转换为排班记录
func (m *Model) materialize(s *Solution) []model.Assignment {
	assignments := make([]model.Assignment, 0, len(s.Picks))
	for _, vi := range s.Picks {
		v := m.Vars[vi]
		emp := m.Employees[v.Emp]
		tmpl := m.Templates[v.Tmpl]

		location := emp.Location
		if location == "" && len(m.Doc.Locations) > 0 {
			location = m.Doc.Locations[0]
		}
		department := emp.Department
		if !containsStr(m.Doc.Departments, department) && len(m.Doc.Departments) > 0 {
			department = m.Doc.Departments[0]
		}

		assignments = append(assignments, model.Assignment{
			BaseModel:    model.NewBaseModel(),
			EmployeeID:   emp.ID.String(),
			EmployeeName: emp.Name,
			Date:         m.Dates[v.Date],
			StartTime:    tmpl.StartTime,
			EndTime:      tmpl.EndTime,
			Role:         emp.Role,
			Department:   department,
			Location:     location,
			TemplateName: tmpl.Name,
			Status:       model.StatusScheduled,
			Note:         "optimizing solver",
		})
	}
	return assignments
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// boltzmann 模拟退火接受概率
func boltzmann(delta, temperature float64) float64 {
	if delta <= 0 {
		return 1.0
	}
	if temperature <= 0 {
		return 0.0
	}
	return math.Exp(-delta / temperature)
}

func hashPicks(picks []int) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, p := range picks {
		for i := 0; i < 8; i++ {
			buf[i] = byte(p >> (8 * i))
		}
		h.Write(buf[:])
	}
	return h.Sum64()
}

// tabuList 禁忌表，记录最近接受过的解哈希
type tabuList struct {
	items   map[uint64]struct{}
	order   []uint64
	maxSize int
}

func newTabuList(size int) *tabuList {
	if size < 1 {
		size = 1
	}
	return &tabuList{
		items:   make(map[uint64]struct{}),
		order:   make([]uint64, 0, size),
		maxSize: size,
	}
}

func (t *tabuList) add(key uint64) {
	if _, exists := t.items[key]; exists {
		return
	}
	if len(t.order) >= t.maxSize {
		oldest := t.order[0]
		t.order = t.order[1:]
		delete(t.items, oldest)
	}
	t.items[key] = struct{}{}
	t.order = append(t.order, key)
}

func (t *tabuList) contains(key uint64) bool {
	_, exists := t.items[key]
	return exists
}
