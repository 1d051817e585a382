package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"orb-scanner/src/logger"
	"orb-scanner/src/models"
)

// -----------------------------------------------------------------------------
// ScannerServer
// -----------------------------------------------------------------------------

// DetailProvider is what the HTTP handlers need from the pipeline.
type DetailProvider interface {
	Detail(token string) (models.MInstrumentDetail, error)
	MetricsSnapshot() models.MPipelineMetrics
}

type ScannerServer struct {
	Config   *models.MConfig
	Logger   *logger.Logger
	Provider DetailProvider
	engine   *gin.Engine

	// WebSocket clients. The map is owned by the hub goroutine; handlers
	// read the count through the atomic mirror.
	clients     map[*Client]struct{}
	clientCount atomic.Int64
	broadcast   chan *models.MWatchlistUpdate
	register    chan *Client
	unregister  chan *Client

	// Last published snapshot, replayed to clients on connect
	latestUpdate *models.MWatchlistUpdate
	stateMutex   sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewScannerServer(cfg *models.MConfig, provider DetailProvider, log *logger.Logger) *ScannerServer {
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &ScannerServer{
		Config:   cfg,
		Logger:   log,
		Provider: provider,
		engine:   gin.Default(),
		clients:  make(map[*Client]struct{}),
		// Buffered so a publish burst never blocks the broadcaster
		broadcast:  make(chan *models.MWatchlistUpdate, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ScannerServer) setupRoutes() {
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/metrics", s.getMetrics)
	s.engine.GET("/api/instrument/:token", s.getInstrument)

	s.engine.GET("/ws/scanner-updates", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// REST Handlers
// -----------------------------------------------------------------------------

func (s *ScannerServer) getHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}

func (s *ScannerServer) getConfig(c *gin.Context) {
	// Credentials never live in MConfig, so the whole struct is safe to show.
	c.JSON(http.StatusOK, s.Config)
}

func (s *ScannerServer) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.Provider.MetricsSnapshot())
}

func (s *ScannerServer) getInstrument(c *gin.Context) {
	detail, err := s.Provider.Detail(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *ScannerServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.runHub()

	return s.engine.Run(addr)
}
