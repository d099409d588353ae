package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"anoa.com/estatecrm/internal/config"
	"anoa.com/estatecrm/internal/middleware"
	"anoa.com/estatecrm/internal/scheduler"
	"anoa.com/estatecrm/pkg/lock"
	"anoa.com/estatecrm/pkg/logger"
	pkgValidator "anoa.com/estatecrm/pkg/validator"

	activityHttp "anoa.com/estatecrm/internal/modules/activity/delivery/http"
	activityRepo "anoa.com/estatecrm/internal/modules/activity/repository"
	activityService "anoa.com/estatecrm/internal/modules/activity/service"

	engagementHttp "anoa.com/estatecrm/internal/modules/engagement/delivery/http"
	engagementRepo "anoa.com/estatecrm/internal/modules/engagement/repository"
	engagementService "anoa.com/estatecrm/internal/modules/engagement/service"

	leaderboardHttp "anoa.com/estatecrm/internal/modules/leaderboard/delivery/http"
	leaderboardService "anoa.com/estatecrm/internal/modules/leaderboard/service"

	milestoneRepo "anoa.com/estatecrm/internal/modules/milestone/repository"
	milestoneService "anoa.com/estatecrm/internal/modules/milestone/service"

	notifService "anoa.com/estatecrm/internal/modules/notification/service"

	scoringService "anoa.com/estatecrm/internal/modules/scoring/service"

	statHttp "anoa.com/estatecrm/internal/modules/stat/delivery/http"
	statRepo "anoa.com/estatecrm/internal/modules/stat/repository"
	statService "anoa.com/estatecrm/internal/modules/stat/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobEngagementSweep   = "engagement_sweep"
	JobAgentStatsRefresh = "agent_stats_refresh"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	scheduler   *scheduler.Scheduler
	closers     []func() error
	log         *zap.Logger
}

// NewServer wires every module. redisClient may be nil; milestone pub/sub is
// then disabled and the sweep lock only guards this process.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, log *zap.Logger) (*Server, error) {
	log = logger.OrNop(log)
	s := &Server{
		db:          db,
		redisClient: redisClient,
		log:         log,
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := pkgValidator.RegisterCustomValidations(v); err != nil {
			return nil, err
		}
	}

	// Milestone notifications fan out to every configured channel
	var publishers notifService.Fanout
	if redisClient != nil {
		publishers = append(publishers, notifService.NewRedisPublisher(redisClient, cfg.MilestoneChannel))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := notifService.NewKafkaPublisher(cfg.KafkaBrokers, cfg.MilestoneTopic)
		publishers = append(publishers, kafkaPublisher)
		s.closers = append(s.closers, kafkaPublisher.Close)
	}
	if len(publishers) == 0 {
		log.Warn("no milestone channel configured, milestone events will be dropped")
	}

	policy := scoringService.NewPolicy(scoringService.WithWeights(cfg.ScoringWeights))

	activityRepository := activityRepo.NewActivityRepository(db)
	snapshotRepository := engagementRepo.NewSnapshotRepository(db)

	engagementSvc := engagementService.NewService(
		activityRepository,
		snapshotRepository,
		engagementRepo.NewLeadScoreRepository(db),
		engagementService.Config{
			Window:      cfg.EngagementWindow(),
			FloorAtZero: cfg.EngagementFloorAtZero,
		},
		log.Named("engagement"),
	)

	tracker := milestoneService.NewTracker(
		milestoneRepo.NewMilestoneRepository(db),
		publishers,
		cfg.NotifyTimeout,
		log.Named("milestone"),
	)

	sweeper := engagementService.NewSweeper(
		engagementSvc,
		activityRepository,
		tracker,
		lock.New(redisClient),
		engagementService.SweepConfig{
			Lookback: cfg.SweepLookback(),
			LockTTL:  cfg.SweepLockTTL,
		},
		log.Named("sweep"),
	)

	activitySvc := activityService.NewService(activityRepository, policy, engagementSvc, tracker, cfg.EngagementWindowDays, log.Named("activity"))
	activityHandler := activityHttp.NewActivityHandler(activitySvc)

	engagementHandler := engagementHttp.NewEngagementHandler(engagementSvc, tracker, sweeper)

	leaderboardSvc := leaderboardService.NewLeaderboardService(snapshotRepository)
	leaderboardHandler := leaderboardHttp.NewLeaderboardHandler(leaderboardSvc)

	statsAggregator := statService.NewAggregator(
		statRepo.NewListingRepository(db),
		statRepo.NewLeadRepository(db),
		statRepo.NewTransactionRepository(db),
		cfg.StatsTimeout,
		log.Named("stats"),
	)
	statsCache := statService.NewCache(statsAggregator, statRepo.NewStatisticsRepository(db), statRepo.NewAgentDirectory(db), cfg.StatsTTL, log.Named("stats"))
	statHandler := statHttp.NewStatHandler(statsCache)

	// Background jobs
	s.scheduler = scheduler.NewScheduler(log.Named("scheduler"))
	if err := s.scheduler.RegisterJob(scheduler.NewJob(JobEngagementSweep, cfg.SweepSchedule, func(ctx context.Context) error {
		_, err := sweeper.Run(ctx)
		if errors.Is(err, engagementService.ErrSweepInProgress) {
			log.Info("engagement sweep already running elsewhere, skipping")
			return nil
		}
		return err
	})); err != nil {
		return nil, err
	}
	if err := s.scheduler.RegisterJob(scheduler.NewJob(JobAgentStatsRefresh, cfg.StatsRefreshSchedule, func(ctx context.Context) error {
		_, err := statsCache.RefreshAll(ctx)
		return err
	})); err != nil {
		return nil, err
	}

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/metrics", "/healthz"},
	}))

	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Activity tracking
		protected.POST("/activities", activityHandler.Record)
		protected.GET("/activities", activityHandler.ListMine)

		// Engagement
		protected.GET("/engagement/me", engagementHandler.GetMine)

		// Agent statistics
		protected.GET("/agents/me/statistics", authMiddleware.RequireRole(middleware.RoleAgent), statHandler.GetMine)

		// Staff routes
		staff := protected.Group("")
		staff.Use(authMiddleware.RequireRole(middleware.RoleAdmin, middleware.RoleAgent))
		{
			staff.GET("/engagement/:subject_id", engagementHandler.GetBySubject)
			staff.POST("/engagement/:subject_id/recompute", engagementHandler.Recompute)
			staff.GET("/agents/:agent_id/statistics", statHandler.GetByAgent)
			staff.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
		}

		// Admin routes
		adminGroup := protected.Group("")
		adminGroup.Use(authMiddleware.RequireRole(middleware.RoleAdmin))
		{
			adminGroup.POST("/engagement/sweep", engagementHandler.Sweep)
		}
	}

	s.engine = router
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start launches the background scheduler.
func (s *Server) Start() {
	s.scheduler.Start()
}

// Shutdown stops background jobs and releases outbound publishers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop(ctx)

	var errs []error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// RunJob triggers a registered background job immediately.
func (s *Server) RunJob(ctx context.Context, name string) error {
	return s.scheduler.RunJobByName(ctx, name)
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"database": "ok"}
	code := http.StatusOK

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status["database"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	if s.redisClient != nil {
		status["redis"] = "ok"
		if err := s.redisClient.Ping(ctx).Err(); err != nil {
			// Redis only carries notifications and the sweep lock.
			status["redis"] = "unavailable"
		}
	}

	c.JSON(code, status)
}

func setupCORS(router *gin.Engine, allowedOrigins string) {
	var origins []string
	for _, origin := range strings.Split(allowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
