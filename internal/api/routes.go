package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"listing-trust-eval/internal/ai"
	"listing-trust-eval/internal/demo"
	"listing-trust-eval/internal/investigate"
	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/maps"
	"listing-trust-eval/internal/metrics"
	"listing-trust-eval/internal/scoring"
	"listing-trust-eval/internal/serp"
	"listing-trust-eval/internal/store"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	SilentDB       bool
	AllowedOrigins []string
	Catalog        *demo.Catalog
	MapsConfig     maps.Config
	SerpConfig     serp.Config
	AIConfig       ai.Config
	DisableAI      bool
	ScoreMode      investigate.ScoreMode
	Metrics        *metrics.Recorder
}

// Server wires HTTP handlers with persistence and the investigation pipeline.
type Server struct {
	db             *store.Database
	catalog        *demo.Catalog
	allowedOrigins []string
	mapsClient     *maps.Client
	serpClient     *serp.Client
	auditorSource  string
	service        *investigate.Service
	notifier       *InvestigationNotifier
	metrics        *metrics.Recorder
}

const (
	defaultPageSize = 25
	maxPageSize     = 200
	maxPage         = 10000
)

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	catalog := cfg.Catalog
	if catalog == nil {
		catalog = demo.Default()
	}
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.New()
	}

	notifier := NewInvestigationNotifier()
	service, providers, err := investigate.Wire(investigate.WiringConfig{
		Catalog:   catalog,
		Maps:      cfg.MapsConfig,
		Serp:      cfg.SerpConfig,
		AI:        cfg.AIConfig,
		DisableAI: cfg.DisableAI,
		Mode:      cfg.ScoreMode,
		Metrics:   recorder,
		Observer:  notifier.Broadcast,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"maps":    providerMode(providers.Maps.Live()),
		"search":  providerMode(providers.Serp.Live()),
		"auditor": providers.AuditorSource,
	}).Info("investigation providers ready")

	return &Server{
		db:             db,
		catalog:        catalog,
		allowedOrigins: cfg.AllowedOrigins,
		mapsClient:     providers.Maps,
		serpClient:     providers.Serp,
		auditorSource:  providers.AuditorSource,
		service:        service,
		notifier:       notifier,
		metrics:        recorder,
	}, nil
}

// Close releases the database handle.
func (s *Server) Close() error {
	return s.db.Close()
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.POST("/investigations", s.handleCreateInvestigation)
		api.GET("/investigations", s.handleListInvestigations)
		api.GET("/investigations/stream", s.handleInvestigationStream)
		api.GET("/investigations/status", s.handleInvestigationStatus)
		api.GET("/investigations/:id", s.handleGetInvestigation)
		api.POST("/score", s.handleScore)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	count, err := s.db.CountInvestigations()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"maps_mode":      providerMode(s.mapsClient.Live()),
		"search_mode":    providerMode(s.serpClient.Live()),
		"auditor":        s.auditorSource,
		"score_mode":     s.service.Mode(),
		"scenarios":      s.catalog.Names(),
		"investigations": count,
	})
}

func (s *Server) handleCreateInvestigation(c *gin.Context) {
	var req InvestigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	report, err := s.service.Run(c.Request.Context(), req.Query)
	if err != nil {
		switch {
		case errors.Is(err, investigate.ErrEmptyQuery):
			s.renderError(c, http.StatusBadRequest, err)
		case errors.Is(err, investigate.ErrListingNotFound):
			s.renderError(c, http.StatusNotFound, err)
		default:
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}

	if err := s.db.SaveInvestigation(store.NewInvestigation(report)); err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Errorf("save investigation: %w", err))
		return
	}

	c.JSON(http.StatusCreated, toInvestigationDTO(report))
}

func (s *Server) handleListInvestigations(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	if page > maxPage {
		page = maxPage
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	opts := store.InvestigationQuery{
		Query:  strings.TrimSpace(c.Query("q")),
		Sort:   c.Query("sort"),
		Offset: page * pageSize,
		Limit:  pageSize,
	}
	if value := strings.TrimSpace(c.Query("max_score")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid max_score: %s", value))
			return
		}
		opts.MaxScore = &parsed
	}
	if value := strings.TrimSpace(c.Query("verdict")); value != "" {
		var level scoring.Level
		if err := level.UnmarshalText([]byte(value)); err != nil {
			s.renderError(c, http.StatusBadRequest, err)
			return
		}
		opts.Verdict = level.String()
	}

	rows, total, err := s.db.ListInvestigations(opts)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	items := make([]InvestigationSummaryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSummaryDTO(row))
	}
	c.JSON(http.StatusOK, InvestigationsResponse{Items: items, Total: total})
}

func (s *Server) handleGetInvestigation(c *gin.Context) {
	inv, err := s.db.GetInvestigation(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("investigation %s not found", c.Param("id")))
			return
		}
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, toInvestigationDTO(inv.Report()))
}

func (s *Server) handleInvestigationStatus(c *gin.Context) {
	status := s.notifier.LastStatus()
	if status == nil {
		c.JSON(http.StatusOK, InvestigationStatusResponse{State: "idle"})
		return
	}

	resp := InvestigationStatusResponse{
		State:     status.Type,
		ID:        status.ID,
		Query:     status.Query,
		Error:     status.Error,
		UpdatedAt: &status.Timestamp,
	}
	if status.Log != nil {
		resp.Message = status.Log.String()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleScore(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	mode := s.service.Mode()
	if strings.TrimSpace(req.Mode) != "" {
		parsed, err := investigate.ParseScoreMode(req.Mode)
		if err != nil {
			s.renderError(c, http.StatusBadRequest, err)
			return
		}
		mode = parsed
	}

	var verdict scoring.Verdict
	switch {
	case req.Verdict != nil:
		verdict = *req.Verdict
	case mode == investigate.ModeKeyword:
		verdict = scoring.Verdict{Level: scoring.ClassifyNarrative(req.Narrative)}
	default:
		verdict = ai.ParseVerdict(req.Narrative)
	}

	footprint := req.Footprint
	if footprint == nil {
		footprint = listing.Footprint{}
	}
	result := scoring.ScoreVerdict(req.Listing, footprint, verdict)
	c.JSON(http.StatusOK, ScoreResponse{
		Score:      result.Score,
		Breakdown:  result.Breakdown,
		Deductions: result.Deductions,
		Burst:      result.Burst,
		Verdict:    result.Verdict,
		Mode:       string(mode),
	})
}

func (s *Server) handleInvestigationStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("investigation websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("investigation websocket closed")
			} else {
				logrus.WithError(err).Warn("investigation websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func providerMode(live bool) string {
	if live {
		return "live"
	}
	return "demo"
}
