// BanBiao 排班生成引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/banbiao/banbiao/internal/config"
	"github.com/banbiao/banbiao/internal/database"
	"github.com/banbiao/banbiao/internal/handler"
	"github.com/banbiao/banbiao/internal/metrics"
	"github.com/banbiao/banbiao/internal/repository"
	"github.com/banbiao/banbiao/pkg/engine"
	"github.com/banbiao/banbiao/pkg/engine/breaker"
	"github.com/banbiao/banbiao/pkg/engine/solver"
	"github.com/banbiao/banbiao/pkg/logger"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 优先加载 .env，便于本地开发
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置加载失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
		Output: "stdout",
	})

	fmt.Printf("BanBiao 排班生成引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	// 数据库可选：连接失败时以无存储模式运行，仅提供引擎类接口
	var (
		db             *database.DB
		employeeRepo   *repository.EmployeeRepository
		assignmentRepo *repository.AssignmentRepository
		constraintRepo *repository.ConstraintRepository
	)
	db, err = database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库不可用，以无存储模式启动")
		db = nil
	} else {
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.Migrate(migrateCtx); err != nil {
			cancel()
			logger.Error().Err(err).Msg("数据库迁移失败")
			os.Exit(1)
		}
		cancel()
		employeeRepo = repository.NewEmployeeRepository(db)
		assignmentRepo = repository.NewAssignmentRepository(db)
		constraintRepo = repository.NewConstraintRepository(db)
	}

	// 按配置组装排班生成器
	solverCfg := solver.DefaultConfig()
	solverCfg.MaxTime = cfg.Engine.SolverBudget
	solverCfg.MaxIterations = cfg.Engine.MaxIterations
	solverCfg.ParallelWorkers = cfg.Engine.ParallelWorkers
	solverCfg.PlateauThreshold = cfg.Engine.PlateauThreshold

	brk := breaker.New(
		breaker.WithThreshold(cfg.Breaker.FailureThreshold),
		breaker.WithRecoveryTimeout(cfg.Breaker.RecoveryTimeout),
	)

	generator := engine.NewGenerator(
		engine.WithSolverConfig(solverCfg),
		engine.WithBreaker(brk),
	)

	scheduleHandler := handler.NewScheduleHandler(generator, employeeRepo, assignmentRepo, cfg.API.Timeout)
	statsHandler := handler.NewStatsHandler(assignmentRepo, employeeRepo)
	breakerHandler := handler.NewBreakerHandler(brk)
	swapHandler := handler.NewSwapHandler(assignmentRepo, employeeRepo)

	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "ok"
		dbStatus := "disabled"
		code := http.StatusOK
		if db != nil {
			dbStatus = "ok"
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := db.Health(ctx); err != nil {
				status = "degraded"
				dbStatus = "unreachable"
				code = http.StatusServiceUnavailable
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		fmt.Fprintf(w, `{"status":"%s","service":"banbiao","database":"%s"}`, status, dbStatus)
	})

	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "BanBiao 排班生成引擎 API v1",
			"endpoints": {
				"schedule": {
					"generate": "POST /api/v1/schedule/generate",
					"analyze": "POST /api/v1/schedule/analyze",
					"resolve": "POST /api/v1/schedule/resolve",
					"validate": "POST /api/v1/schedule/validate",
					"swap": "POST /api/v1/schedule/swap"
				},
				"breaker": {
					"status": "GET /api/v1/breaker",
					"reset": "POST /api/v1/breaker/reset"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness",
					"coverage": "POST /api/v1/stats/coverage",
					"workload": "POST /api/v1/stats/workload"
				},
				"employees": "GET|POST /api/v1/employees",
				"constraints": "GET|POST /api/v1/constraints",
				"presets": "GET /api/v1/constraints/presets"
			}
		}`))
	})

	// 排班生成 API
	mux.HandleFunc("/api/v1/schedule/generate", scheduleHandler.Generate)

	// 约束冲突分析 API
	mux.HandleFunc("/api/v1/schedule/analyze", scheduleHandler.Analyze)

	// 人工确认的约束修复 API
	mux.HandleFunc("/api/v1/schedule/resolve", scheduleHandler.Resolve)

	// 排班合规校验 API
	mux.HandleFunc("/api/v1/schedule/validate", scheduleHandler.Validate)

	// 换班推荐 API
	mux.HandleFunc("/api/v1/schedule/swap", swapHandler.Recommend)

	// 约束文档预设 API
	mux.HandleFunc("/api/v1/constraints/presets", handler.ConstraintPresets)

	// 熔断器 API
	mux.HandleFunc("/api/v1/breaker", breakerHandler.Status)
	mux.HandleFunc("/api/v1/breaker/reset", breakerHandler.Reset)

	// ========================================
	// 统计分析 API
	// ========================================

	mux.HandleFunc("/api/v1/stats/fairness", statsHandler.Fairness)
	mux.HandleFunc("/api/v1/stats/coverage", statsHandler.Coverage)
	mux.HandleFunc("/api/v1/stats/workload", statsHandler.Workload)

	// ========================================
	// 存储类 API（仅数据库可用时注册）
	// ========================================

	if db != nil {
		employeeHandler := handler.NewEmployeeHandler(employeeRepo)
		constraintHandler := handler.NewConstraintHandler(constraintRepo)

		mux.HandleFunc("/api/v1/employees", employeeHandler.Collection)
		mux.HandleFunc("/api/v1/employees/", employeeHandler.Item)
		mux.HandleFunc("/api/v1/constraints", constraintHandler.Collection)
		mux.HandleFunc("/api/v1/constraints/", constraintHandler.Item)
	}

	// ========================================
	// 监控端点
	// ========================================

	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// 周期性上报数据库连接池指标
	if db != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				stats := db.Stats()
				metrics.SetDBConnections(stats.OpenConnections, stats.Idle, stats.InUse)
			}
		}()
	}

	// 中间件执行顺序：requestID -> rateLimit -> cors -> logging -> handler
	rateLimiter := NewRateLimiter(float64(cfg.API.RateLimit))
	var root http.Handler = loggingMiddleware(mux)
	if cfg.API.CORS.Enabled {
		root = corsMiddleware(root)
	}
	root = requestIDMiddleware(rateLimitMiddleware(rateLimiter, root))

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Bool("database", db != nil).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error().Err(err).Msg("数据库连接关闭失败")
		}
	}

	logger.Info().Msg("服务器已关闭")
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type requestIDKey struct{}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID, _ := r.Context().Value(requestIDKey{}).(string)

		// 包装ResponseWriter以捕获状态码
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		metrics.RecordRequestMetrics(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter 简单的令牌桶限流器
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // 每秒添加的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // 允许突发流量
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

// rateLimitMiddleware 限流中间件
func rateLimitMiddleware(limiter *RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "RATE_LIMITED",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
