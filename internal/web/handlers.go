package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/audithawk/internal/audit"
	"github.com/Veraticus/audithawk/internal/common"
	"github.com/Veraticus/audithawk/internal/ingest"
	"github.com/Veraticus/audithawk/internal/model"
	"github.com/Veraticus/audithawk/internal/rules"
)

const maxUploadSize = 10 << 20 // 10MB

type vendorRequest struct {
	Name string `json:"name"`
}

// statusFor maps pipeline and state errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrMissingColumn),
		errors.Is(err, ingest.ErrNoDataRows),
		errors.Is(err, ingest.ErrNoFile),
		errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, rules.ErrInvalidThreshold),
		errors.Is(err, rules.ErrEmptyVendor),
		errors.Is(err, audit.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, audit.ErrNoLiveSession),
		errors.Is(err, audit.ErrRecordNotFound),
		errors.Is(err, rules.ErrVendorNotFound),
		errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rules.ErrDuplicateVendor):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		common.LogError(err, "Request failed", common.Fields{"path": c.FullPath()})
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func sessionBody(session *model.AuditSession) gin.H {
	return gin.H{
		"success": true,
		"session": session,
		"summary": audit.Summarize(*session),
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"service":   ServiceName,
		"timestamp": s.now().UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	req := audit.AnalyzeRequest{Synthetic: c.PostForm("mode") == string(model.ModeSynthetic)}

	header, err := c.FormFile("file")
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		fail(c, err)
		return
	case err != nil && !req.Synthetic:
		fail(c, ingest.ErrNoFile)
		return
	case err == nil:
		file, openErr := header.Open()
		if openErr != nil {
			fail(c, openErr)
			return
		}
		defer func() { _ = file.Close() }()
		req.FileName = header.Filename
		req.Content = file
	}

	threshold, err := rules.ParseThreshold(c.PostForm("threshold"))
	if err != nil {
		fail(c, err)
		return
	}
	req.Threshold = threshold

	session, err := s.state.Analyze(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	body := sessionBody(session)
	body["message"] = "Analysis complete"
	c.JSON(http.StatusCreated, body)
}

func (s *Server) handleLive(c *gin.Context) {
	session, err := s.state.Live()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody(session))
}

func (s *Server) handleClearLive(c *gin.Context) {
	s.state.ClearLive()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Live session cleared",
	})
}

func (s *Server) handleAccept(c *gin.Context) {
	s.handleDisposition(c, model.StatusAccepted)
}

func (s *Server) handleReject(c *gin.Context) {
	s.handleDisposition(c, model.StatusRejected)
}

func (s *Server) handleDisposition(c *gin.Context, status model.Status) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "index must be an integer",
		})
		return
	}

	session, err := s.state.SetStatus(index, status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody(session))
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.state.History(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if sessions == nil {
		sessions = []model.AuditSession{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (s *Server) handleGetSession(c *gin.Context) {
	session, err := s.state.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody(session))
}

func (s *Server) handleSelectSession(c *gin.Context) {
	session, err := s.state.SelectSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionBody(session))
}

func (s *Server) handleListVendors(c *gin.Context) {
	vendors := s.state.Vendors()
	if vendors == nil {
		vendors = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"vendors": vendors,
		"count":   len(vendors),
	})
}

func (s *Server) handleAddVendor(c *gin.Context) {
	var req vendorRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	if err := s.state.AddVendor(c.Request.Context(), req.Name); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Vendor trusted",
		"vendors": s.state.Vendors(),
	})
}

func (s *Server) handleRemoveVendor(c *gin.Context) {
	if err := s.state.RemoveVendor(c.Request.Context(), c.Param("name")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Vendor removed",
		"vendors": s.state.Vendors(),
	})
}
