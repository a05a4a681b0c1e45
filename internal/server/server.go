package server

import (
	"context"
	"net/http"
	"time"

	"anoa.com/tutorhub/internal/config"
	"anoa.com/tutorhub/internal/entity"
	"anoa.com/tutorhub/internal/middleware"
	"anoa.com/tutorhub/internal/scheduler"
	"anoa.com/tutorhub/internal/session"
	"anoa.com/tutorhub/pkg/logger"
	"anoa.com/tutorhub/pkg/ratelimiter"
	"anoa.com/tutorhub/pkg/response"
	"anoa.com/tutorhub/pkg/storage"
	"anoa.com/tutorhub/pkg/validator"

	activityRepo "anoa.com/tutorhub/internal/modules/activity/repository"

	assignmentHttp "anoa.com/tutorhub/internal/modules/assignment/delivery/http"
	assignmentRepo "anoa.com/tutorhub/internal/modules/assignment/repository"
	assignmentService "anoa.com/tutorhub/internal/modules/assignment/service"

	classHttp "anoa.com/tutorhub/internal/modules/classroom/delivery/http"
	classRepo "anoa.com/tutorhub/internal/modules/classroom/repository"
	classService "anoa.com/tutorhub/internal/modules/classroom/service"

	dashboardHttp "anoa.com/tutorhub/internal/modules/dashboard/delivery/http"
	dashboardRepo "anoa.com/tutorhub/internal/modules/dashboard/repository"
	dashboardService "anoa.com/tutorhub/internal/modules/dashboard/service"

	notifHttp "anoa.com/tutorhub/internal/modules/notification/delivery/http"
	notifRepo "anoa.com/tutorhub/internal/modules/notification/repository"
	notifService "anoa.com/tutorhub/internal/modules/notification/service"

	profileHttp "anoa.com/tutorhub/internal/modules/profile/delivery/http"
	profileService "anoa.com/tutorhub/internal/modules/profile/service"

	resourceHttp "anoa.com/tutorhub/internal/modules/resource/delivery/http"
	resourceRepo "anoa.com/tutorhub/internal/modules/resource/repository"
	resourceService "anoa.com/tutorhub/internal/modules/resource/service"

	rewardHttp "anoa.com/tutorhub/internal/modules/reward/delivery/http"
	rewardRepo "anoa.com/tutorhub/internal/modules/reward/repository"
	rewardService "anoa.com/tutorhub/internal/modules/reward/service"

	searchService "anoa.com/tutorhub/internal/modules/search/service"

	submissionHttp "anoa.com/tutorhub/internal/modules/submission/delivery/http"
	submissionRepo "anoa.com/tutorhub/internal/modules/submission/repository"
	submissionService "anoa.com/tutorhub/internal/modules/submission/service"

	userHttp "anoa.com/tutorhub/internal/modules/user/delivery/http"
	userRepo "anoa.com/tutorhub/internal/modules/user/repository"
	userService "anoa.com/tutorhub/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the long-lived clients built in main. Redis and Meili are
// optional.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Meili  meilisearch.ServiceManager
	Files  storage.FileStore
	Log    *logger.Logger
}

type Server struct {
	engine    *gin.Engine
	db        *gorm.DB
	scheduler *scheduler.Scheduler
	log       *logger.Logger
}

func NewServer(deps Deps) (*Server, error) {
	cfg, db, log := deps.Config, deps.DB, deps.Log
	response.SetLogger(log)
	if err := validator.Register(); err != nil {
		return nil, err
	}

	sessions := session.NewManager(session.Options{
		Secret:      cfg.JWTSecret,
		SessionTTL:  cfg.JWTTTL,
		RememberTTL: cfg.RememberTTL,
		ConsentTTL:  cfg.ConsentTTL,
		Secure:      cfg.CookieSecure,
	})

	var index searchService.ResourceIndex
	if deps.Meili != nil {
		index = searchService.NewMeiliSearchService(deps.Meili, log)
	}

	activityRepository := activityRepo.NewActivityRepository(db)
	userRepository := userRepo.NewUserRepository(db, activityRepository)
	classRepository := classRepo.NewClassRepository(db, activityRepository)
	resourceRepository := resourceRepo.NewResourceRepository(db, activityRepository)
	assignmentRepository := assignmentRepo.NewAssignmentRepository(db, activityRepository)
	rewardRepository := rewardRepo.NewRewardRepository(db, activityRepository)
	submissionRepository := submissionRepo.NewSubmissionRepository(db, activityRepository, rewardRepository)

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, deps.Redis, log)
	notificationHandler := notifHttp.NewNotificationHandler(notificationSvc, deps.Redis, cfg.AllowedOrigins, log)

	authSvc := userService.NewAuthService(userRepository, sessions, log)
	limiter := ratelimiter.New(deps.Redis)
	authHandler := userHttp.NewAuthHandler(authSvc, sessions, limiter, log)

	profileSvc := profileService.NewProfileService(userRepository, deps.Files, index, log)
	profileHandler := profileHttp.NewProfileHandler(profileSvc, sessions)

	classSvc := classService.NewClassService(classRepository, userRepository, notificationSvc, log)
	classHandler := classHttp.NewClassHandler(classSvc)

	maxUpload := cfg.MaxUploadMB << 20
	resourceSvc := resourceService.NewResourceService(resourceRepository, deps.Files, index, maxUpload, log)
	resourceHandler := resourceHttp.NewResourceHandler(resourceSvc, maxUpload*4)

	assignmentSvc := assignmentService.NewAssignmentService(assignmentRepository, classRepository, resourceRepository, log)
	assignmentHandler := assignmentHttp.NewAssignmentHandler(assignmentSvc)

	rewardSvc := rewardService.NewRewardService(rewardRepository, log)
	rewardHandler := rewardHttp.NewRewardHandler(rewardSvc)

	submissionSvc := submissionService.NewSubmissionService(submissionRepository, assignmentRepository, classRepository, notificationSvc, log)
	submissionHandler := submissionHttp.NewSubmissionHandler(submissionSvc)

	dashboardSvc := dashboardService.NewDashboardService(db, dashboardRepo.NewDashboardRepository(), activityRepository, rewardRepository, log)
	dashboardHandler := dashboardHttp.NewDashboardHandler(dashboardSvc)

	jobs := scheduler.New(log)
	if err := jobs.Register(scheduler.NewOrphanCleanupJob(resourceSvc, cfg.OrphanCleanupSchedule, log)); err != nil {
		return nil, err
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log, "/healthz"))
	router.Use(middleware.SecureHeaders())

	authMiddleware := middleware.NewAuthMiddleware(sessions, authSvc)

	s := &Server{engine: router, db: db, scheduler: jobs, log: log}

	// Public routes (no auth required)
	router.GET("/healthz", s.health)
	router.POST("/register", middleware.RateLimit(limiter, log, ratelimiter.ActionRegister, cfg.RateLimitRegister, cfg.RateLimitWindow), authHandler.Register)
	router.POST("/login", middleware.RateLimit(limiter, log, ratelimiter.ActionLogin, cfg.RateLimitLogin, cfg.RateLimitWindow), authHandler.Login)
	router.GET("/consent", authHandler.GiveConsent)
	router.DELETE("/consent", authHandler.RevokeConsent)

	protected := router.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/logout", authHandler.Logout)

		protected.GET("/account", profileHandler.GetCurrentProfile)
		protected.POST("/account", profileHandler.UpdateProfile)
		protected.DELETE("/account", profileHandler.DeleteAccount)
		protected.POST("/account/password", profileHandler.ChangePassword)

		protected.GET("/resources", resourceHandler.ListResources)
		protected.POST("/resources", resourceHandler.CreateResource)
		protected.GET("/resources/search", resourceHandler.Search)
		protected.GET("/uploads/:filename", resourceHandler.Open)

		protected.GET("/rewards", rewardHandler.ListRewards)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
	}

	learner := protected.Group("")
	learner.Use(authMiddleware.RequireRole(entity.RoleLearner))
	{
		learner.GET("/learner/dashboard", dashboardHandler.LearnerDashboard)
		learner.GET("/learner/classes", classHandler.LearnerClasses)
		learner.POST("/assignments/:id/submissions", submissionHandler.Submit)
		learner.GET("/submissions", submissionHandler.ListMine)
	}

	tutor := protected.Group("")
	tutor.Use(authMiddleware.RequireRole(entity.RoleTutor))
	{
		tutor.GET("/tutor/dashboard", dashboardHandler.TutorDashboard)
		tutor.POST("/tutor/dashboard", dashboardHandler.TutorDashboard)

		tutor.GET("/classes", classHandler.ListClasses)
		tutor.GET("/classes/new", classHandler.NewClassForm)
		tutor.POST("/classes/new", classHandler.CreateClass)
		tutor.GET("/classes/:id/students", classHandler.Students)
		tutor.POST("/classes/:id/enrollments", classHandler.Enroll)
		tutor.DELETE("/classes/:id/enrollments/:user_id", classHandler.Unenroll)

		tutor.GET("/assignments", assignmentHandler.ListAssignments)
		tutor.POST("/assignments", assignmentHandler.CreateAssignment)
		tutor.POST("/assignments/:id/delete", assignmentHandler.DeleteAssignment)
		tutor.GET("/assignments/:id/submissions", submissionHandler.ListForAssignment)
		tutor.POST("/submissions/:id/grade", submissionHandler.Grade)

		tutor.POST("/rewards", rewardHandler.CreateReward)
	}

	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Scheduler() *scheduler.Scheduler {
	return s.scheduler
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		s.log.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
