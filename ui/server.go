// Package ui exposes the pipeline over HTTP: a gin API for the pipeline
// operations and a chi router for health and profiling endpoints.
package ui

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"crminsight/app"
	"crminsight/domain/core"
	"crminsight/domain/model"
	"crminsight/internal/session"
)

// Options configures the API server
type Options struct {
	MaxUploadBytes   int64
	DefaultTarget    string
	DefaultIDColumn  string
	DefaultThreshold float64
}

// Server serves the pipeline API for a single session
type Server struct {
	router   *gin.Engine
	pipeline *app.PipelineService
	session  *session.Session
	options  Options
}

// NewServer creates the API server and registers its routes
func NewServer(pipeline *app.PipelineService, sess *session.Session, options Options) *Server {
	if options.MaxUploadBytes <= 0 {
		options.MaxUploadBytes = 50 << 20
	}

	s := &Server{
		router:   gin.New(),
		pipeline: pipeline,
		session:  sess,
		options:  options,
	}
	s.router.MaxMultipartMemory = options.MaxUploadBytes
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler for the API
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery(), corsMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/upload", s.handleUpload)
	s.router.POST("/train", s.handleTrain)
	s.router.GET("/metrics", s.handleMetrics)
	s.router.POST("/score", s.handleScore)
	s.router.GET("/report", s.handleReport)
	s.router.GET("/runs", s.handleRuns)
}

// corsMiddleware allows any origin
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"service": "crminsight",
		"session": s.session.ID,
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.options.MaxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		writeBadRequest(c, "multipart field 'file' is required")
		return
	}
	file, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(c, err)
		return
	}

	summary, err := s.pipeline.IngestFile(c.Request.Context(), s.session, header.Filename, raw)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":          true,
		"rows":        summary.Rows,
		"columns":     summary.Columns,
		"fingerprint": summary.Fingerprint,
		"fields":      summary.Fields,
	})
}

type trainRequest struct {
	Target   string `json:"target"`
	IDColumn string `json:"id_column"`
}

func (s *Server) handleTrain(c *gin.Context) {
	var req trainRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(c, "invalid JSON body: "+err.Error())
		return
	}
	if req.Target == "" {
		req.Target = s.options.DefaultTarget
	}
	if req.IDColumn == "" {
		req.IDColumn = s.options.DefaultIDColumn
	}

	result, err := s.pipeline.Train(c.Request.Context(), s.session, model.TargetSpec{Target: req.Target, IDColumn: req.IDColumn})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":                  true,
		"artifact_id":         result.ArtifactID,
		"auc":                 result.Metric,
		"n_rows":              result.Rows,
		"n_features":          result.FeatureColumns,
		"n_expanded_features": result.ExpandedFeatures,
		"converged":           result.Converged,
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	d, err := s.pipeline.Diagnostics(c.Request.Context(), s.session)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"artifact_id":  d.ArtifactID,
		"target":       d.Target,
		"auc":          d.Metric,
		"churn_rate":   d.TargetRate,
		"n_features":   d.FeatureCount,
		"train_rows":   d.TrainRows,
		"top_features": d.TopFeatures,
	})
}

type scoreRequest struct {
	Threshold *float64 `json:"threshold"`
}

func (s *Server) handleScore(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(c, "invalid JSON body: "+err.Error())
		return
	}
	threshold := s.options.DefaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 1 {
		writeBadRequest(c, "threshold must be between 0 and 1")
		return
	}

	result, err := s.pipeline.Score(c.Request.Context(), s.session, threshold)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"threshold": result.Threshold,
		"scores":    scoreRows(result),
		"tiers":     result.Tiers,
	})
}

// scoreRows renders rows with the identifier keyed by its column name
func scoreRows(result *model.ScoreResult) []gin.H {
	rows := make([]gin.H, len(result.Rows))
	for i, row := range result.Rows {
		h := gin.H{
			"index":          row.Index,
			"prob":           row.Probability,
			"recommendation": row.Recommendation,
			"at_risk":        row.AtRisk,
		}
		if row.HasID {
			h[result.IDColumn] = row.ID
		}
		rows[i] = h
	}
	return rows
}

func (s *Server) handleRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		writeBadRequest(c, "limit must be a positive integer")
		return
	}

	runs, err := s.pipeline.Runs(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "runs": runs})
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": message})
}

// writeError maps domain error kinds to 400 and anything else to 500
func writeError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"ok": false, "error": err.Error()})
		return
	}

	if kind := core.ErrorKind(err); kind != "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error(), "kind": kind})
		return
	}
	log.Printf("[API] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "internal error"})
}
