package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"whiteboard-backend/internal/access"
	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/board"
	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/store"
)

// Server Fiber 서버 래퍼
type Server struct {
	app            *fiber.App
	cfg            *config.Config
	db             *gorm.DB
	engine         *board.Engine
	reaper         *board.Reaper
	hub            *handler.BoardHub
	boardHandler   *handler.BoardHandler
	boardWSHandler *handler.BoardWSHandler
	healthHandler  *handler.HealthHandler
	jwtManager     *auth.JWTManager
	redisClient    *cache.RedisClient
}

// New 새 서버 인스턴스 생성
func New(cfg *config.Config, db *gorm.DB) *Server {
	app := fiber.New(fiber.Config{
		AppName:        "Whiteboard Sync Engine",
		ServerHeader:   "Fiber",
		StrictRouting:  true,
		CaseSensitive:  true,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		Prefork:        false, // WebSocket과 호환성 문제로 비활성화
		ReadBufferSize: 16384,
		BodyLimit:      1 * 1024 * 1024,
	})

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)

	// Redis 초기화 (선택적)
	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		var err error
		redisClient, err = cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("⚠️ Redis initialization failed: %v (room rosters will be disabled)", err)
			redisClient = nil
		}
	} else {
		log.Println("ℹ️ Redis not configured (room rosters will be disabled)")
	}

	policy := access.NewPolicy(db)
	strokeStore := store.NewStrokeStore(db)
	engine := board.NewEngine(strokeStore, policy)
	reaper := board.NewReaper(engine.Buffer(), cfg.Board.ReaperInterval, cfg.Board.StrokeMaxAge)
	hub := handler.NewBoardHub()

	return &Server{
		app:            app,
		cfg:            cfg,
		db:             db,
		engine:         engine,
		reaper:         reaper,
		hub:            hub,
		boardHandler:   handler.NewBoardHandler(engine, redisClient),
		boardWSHandler: handler.NewBoardWSHandler(engine, hub, redisClient),
		healthHandler:  handler.NewHealthHandler(db, redisClient),
		jwtManager:     jwtManager,
		redisClient:    redisClient,
	}
}

// SetupMiddleware 미들웨어 설정
func (s *Server) SetupMiddleware() {
	// 패닉 복구
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// 로깅
	s.app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.AllowOrigins,
		AllowHeaders:     s.cfg.CORS.AllowHeaders,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))
}

// SetupRoutes 라우트 설정
func (s *Server) SetupRoutes() {
	// 헬스체크 엔드포인트
	s.app.Get("/health", s.healthHandler.Check)
	s.app.Get("/health/live", s.healthHandler.Liveness)
	s.app.Get("/health/ready", s.healthHandler.Readiness)

	// Board 쿼리 라우트 (인증 필요)
	boardGroup := s.app.Group("/api/board", auth.AuthMiddleware(s.jwtManager))
	boardGroup.Get("/state", s.boardHandler.GetBoardState)
	boardGroup.Get("/count", s.boardHandler.GetStrokeCount)
	boardGroup.Post("/clear", s.boardHandler.ClearBoard)
	boardGroup.Post("/undo", s.boardHandler.UndoStroke)
	boardGroup.Delete("/strokes/:token", s.boardHandler.EraseStroke)

	// 업그레이드 폭주 방지 (연결당 1회라 넉넉하게)
	wsLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "too many requests, please try again later",
			})
		},
	})

	// WebSocket 보드 엔드포인트
	s.app.Get("/ws/board", wsLimiter, func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		// 쿠키 우선, 브라우저 외 클라이언트는 쿼리 파라미터 허용
		accessToken := c.Cookies("access_token")
		if accessToken == "" {
			accessToken = c.Query("token")
		}
		if accessToken == "" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		claims, err := s.jwtManager.ValidateAccessToken(accessToken)
		if err != nil {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		c.Locals("userID", claims.UserID)
		c.Locals("nickname", claims.Nickname)

		return c.Next()
	}, websocket.New(s.boardWSHandler.HandleWebSocket, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Start 서버 시작 (Graceful Shutdown 지원)
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 버퍼 청소기 시작
	go s.reaper.Run(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("🛑 Shutting down server...")
		cancel()
		if s.redisClient != nil {
			s.redisClient.Close()
		}
		if err := s.app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Fatalf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("🚀 Whiteboard Sync Engine starting on %s", s.cfg.Server.Port)
	log.Printf("📡 WebSocket endpoint: ws://localhost%s/ws/board", s.cfg.Server.Port)

	return s.app.Listen(s.cfg.Server.Port)
}

// Shutdown 서버 종료
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(30 * time.Second)
}
