package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abelzeko/water-quality-bot/internal/analysis"
	"github.com/abelzeko/water-quality-bot/internal/config"
	"github.com/abelzeko/water-quality-bot/internal/entities"
	"github.com/abelzeko/water-quality-bot/internal/integration"
	"github.com/abelzeko/water-quality-bot/internal/logging"
	"github.com/abelzeko/water-quality-bot/internal/usecases"
)

const defaultImportsLimit = 20

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg           config.ServerConfig
	maxUploadSize int64
	useCase       *usecases.QualityUseCase
	engine        *gin.Engine
	logger        *logging.Logger
}

// New constructs a server with routes and middleware.
func New(cfg config.ServerConfig, maxUploadSize int64, useCase *usecases.QualityUseCase, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.Global()
	}
	logger = logger.With("component", "http")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware())

	server := &Server{
		cfg:           cfg,
		maxUploadSize: maxUploadSize,
		useCase:       useCase,
		engine:        engine,
		logger:        logger,
	}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.engine.GET("/measurements", s.handleListMeasurements)
	s.engine.POST("/measurements", s.handleAddMeasurement)
	s.engine.POST("/import", s.handleImport)
	s.engine.GET("/imports", s.handleListImports)
	s.engine.GET("/trend", s.handleTrend)
	s.engine.GET("/predict", s.handlePredict)
	s.engine.GET("/seasonal", s.handleSeasonal)
	s.engine.GET("/series", s.handleSeries)
}

func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrInsufficientData), errors.Is(err, analysis.ErrDegenerateRegression):
		return http.StatusConflict
	case errors.Is(err, analysis.ErrEmptyImport), errors.Is(err, integration.ErrMissingColumn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) handleListMeasurements(c *gin.Context) {
	ms := s.useCase.Measurements()
	settings := s.useCase.Settings()

	c.JSON(http.StatusOK, gin.H{
		"time_unit":    settings.TimeUnit,
		"count":        len(ms),
		"measurements": ms,
	})
}

// measurementRequest is the body of POST /measurements
type measurementRequest struct {
	Time            *float64 `json:"time"`
	DissolvedOxygen *float64 `json:"do_level"`
	Turbidity       *float64 `json:"turbidity"`
	PH              *float64 `json:"ph"`
}

func (r measurementRequest) candidate() entities.Candidate {
	c := entities.Candidate{
		Time:            entities.Missing(),
		DissolvedOxygen: entities.Missing(),
		Turbidity:       r.Turbidity,
		PH:              r.PH,
	}
	if r.Time != nil {
		c.Time = *r.Time
	}
	if r.DissolvedOxygen != nil {
		c.DissolvedOxygen = *r.DissolvedOxygen
	}
	return c
}

func (s *Server) handleAddMeasurement(c *gin.Context) {
	var req measurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	m, err := s.useCase.AddMeasurement(ctx, req.candidate())
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"measurement": m})
}

func (s *Server) handleImport(c *gin.Context) {
	source := c.DefaultQuery("source", "http upload")
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadSize)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	rec, err := s.useCase.ImportCSV(ctx, source, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload too large"})
			return
		}
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"import": rec})
}

func (s *Server) handleListImports(c *gin.Context) {
	limit := defaultImportsLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	imports, err := s.useCase.Imports(ctx, limit)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": len(imports), "imports": imports})
}

func (s *Server) handleTrend(c *gin.Context) {
	trend, err := s.useCase.Trend()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trend": trend})
}

func (s *Server) handlePredict(c *gin.Context) {
	valueStr := c.Query("value")
	if valueStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid value"})
		return
	}
	unit := c.DefaultQuery("unit", string(s.useCase.Settings().TimeUnit))

	forecast, err := s.useCase.Predict(value, unit)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": forecast})
}

func (s *Server) handleSeries(c *gin.Context) {
	field := entities.Field(c.DefaultQuery("field", string(entities.FieldDissolvedOxygen)))
	switch field {
	case entities.FieldDissolvedOxygen, entities.FieldTurbidity, entities.FieldPH:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "field must be do_level, turbidity or ph"})
		return
	}

	times, values := s.useCase.Series(field)
	c.JSON(http.StatusOK, gin.H{
		"field":     field,
		"time_unit": s.useCase.Settings().TimeUnit,
		"times":     times,
		"values":    values,
	})
}

func (s *Server) handleSeasonal(c *gin.Context) {
	table := s.useCase.Seasonal()
	offsets := make(map[string]float64, len(table))
	for hour, offset := range table {
		offsets[strconv.Itoa(hour)] = offset
	}
	c.JSON(http.StatusOK, gin.H{
		"enabled": s.useCase.Settings().Variant.Seasonal,
		"hours":   len(table),
		"offsets": offsets,
	})
}
