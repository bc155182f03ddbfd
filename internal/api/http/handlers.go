package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/minicode/internal/domain/playground"
	"github.com/GriffinCanCode/minicode/internal/domain/relay"
	"github.com/GriffinCanCode/minicode/internal/domain/sandbox"
	"github.com/GriffinCanCode/minicode/internal/domain/source"
	"github.com/GriffinCanCode/minicode/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/minicode/internal/shared/id"
)

// Workspace is the playground core the handlers drive
type Workspace interface {
	Snapshot() playground.Snapshot
	State() source.State
	Preview() playground.Preview
	OnEdit(buffer source.Buffer, text string) error
	RunNow(ctx context.Context) (playground.Preview, error)
	ResetToDefault(ctx context.Context) (playground.Preview, error)
	ToggleTheme() bool
	ToggleLayout() bool
	ToggleConsolePanel() bool
	ClearConsolePanel()
	Console() []relay.Entry
	ConsoleVisible() bool
	Save(ctx context.Context) error
	ExportFiles() map[string]string
	CopyBuffer(buffer source.Buffer) (string, bool, error)
	Dispatch(ctx context.Context, cmd playground.Command) error
	DeliverRaw(tag id.SandboxID, raw []byte) error
	OpenDocument(sandboxID id.SandboxID, token string) (string, error)
	ActiveSandbox() id.SandboxID
	SandboxStats() map[string]interface{}
}

// Handlers contains all HTTP handlers
type Handlers struct {
	workspace Workspace
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(workspace Workspace, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		workspace: workspace,
		metrics:   metrics,
		logger:    logger,
	}
}

// Register mounts every route on router
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.GET("/metrics/json", h.MetricsJSON)

	api := router.Group("/api")
	api.GET("/state", h.GetState)
	api.PUT("/buffers/:buffer", h.EditBuffer)
	api.GET("/preview", h.GetPreview)
	api.POST("/run", h.Run)
	api.POST("/reset", h.Reset)
	api.POST("/theme/toggle", h.ToggleTheme)
	api.POST("/layout/toggle", h.ToggleLayout)
	api.POST("/save", h.Save)
	api.POST("/commands", h.Command)
	api.POST("/copy/:buffer", h.Copy)
	api.POST("/logs", h.StreamLogs)

	api.GET("/console", h.GetConsole)
	api.DELETE("/console", h.ClearConsole)
	api.POST("/console/toggle", h.ToggleConsole)

	api.GET("/export", h.Export)
	api.GET("/export/archive", h.ExportArchive)
	api.GET("/export/files/:filename", h.ExportFile)

	api.POST("/sandboxes/:id/messages", h.RelayMessage)
	router.GET("/sandbox/:id/:token", h.SandboxDocument)
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "minicode",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"active_sandbox": h.workspace.ActiveSandbox(),
		"sandbox":        h.workspace.SandboxStats(),
	})
}

// GetState returns the editor state, console visibility and current preview
func (h *Handlers) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace.Snapshot())
}

type editRequest struct {
	Text *string `json:"text"`
}

// EditBuffer replaces one buffer; the preview follows after the quiet period
func (h *Handlers) EditBuffer(c *gin.Context) {
	buffer, err := source.ParseBuffer(c.Param("buffer"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be {\"text\": string}"})
		return
	}

	if err := h.workspace.OnEdit(buffer, *req.Text); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"buffer": buffer,
		"length": len(*req.Text),
	})
}

// GetPreview returns the assembled document and sandbox locator
func (h *Handlers) GetPreview(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace.Preview())
}

// Run renders the preview now. A sandbox failure is reported in the preview, not as a 5xx.
func (h *Handlers) Run(c *gin.Context) {
	preview, err := h.workspace.RunNow(c.Request.Context())
	h.previewResponse(c, preview, err)
}

// Reset restores the sample program
func (h *Handlers) Reset(c *gin.Context) {
	preview, err := h.workspace.ResetToDefault(c.Request.Context())
	h.previewResponse(c, preview, err)
}

func (h *Handlers) previewResponse(c *gin.Context, preview playground.Preview, err error) {
	if err != nil {
		h.logger.Debug("Preview run failed", zap.Error(err))
	}
	c.JSON(http.StatusOK, preview)
}

// ToggleTheme flips dark/light
func (h *Handlers) ToggleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isDarkTheme": h.workspace.ToggleTheme()})
}

// ToggleLayout flips horizontal/vertical
func (h *Handlers) ToggleLayout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"isVerticalLayout": h.workspace.ToggleLayout()})
}

// Save persists the current state synchronously and reports the outcome
func (h *Handlers) Save(c *gin.Context) {
	if err := h.workspace.Save(c.Request.Context()); err != nil {
		h.logger.Warn("Explicit save failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"saved": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

type commandRequest struct {
	Command  string `json:"command"`
	Shortcut string `json:"shortcut"`
}

// Command dispatches a named command or a raw key chord such as "ctrl+shift+l"
func (h *Handlers) Command(c *gin.Context) {
	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid command request"})
		return
	}

	var (
		cmd playground.Command
		err error
	)
	switch {
	case req.Command != "":
		cmd, err = playground.ParseCommand(req.Command)
	case req.Shortcut != "":
		cmd, err = playground.ParseShortcut(req.Shortcut)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "command or shortcut is required"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.workspace.Dispatch(c.Request.Context(), cmd); err != nil {
		switch {
		case errors.Is(err, sandbox.ErrSandboxCreation):
			// the failed preview is already published; the command itself ran
		case cmd == playground.CommandSave:
			h.logger.Warn("Explicit save failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"command": cmd, "saved": false, "error": err.Error()})
			return
		default:
			respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"command":  cmd,
		"snapshot": h.workspace.Snapshot(),
	})
}

type copyResponse struct {
	Buffer source.Buffer `json:"buffer"`
	Text   string        `json:"text"`
	Copied bool          `json:"copied"`
}

// Copy returns a buffer's text and puts it on the system clipboard when there is one
func (h *Handlers) Copy(c *gin.Context) {
	buffer, err := source.ParseBuffer(c.Param("buffer"))
	if err != nil {
		respondError(c, err)
		return
	}
	text, copied, err := h.workspace.CopyBuffer(buffer)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, copyResponse{Buffer: buffer, Text: text, Copied: copied})
}

// MetricsJSON returns request and pipeline totals for dashboards without a Prometheus scraper
func (h *Handlers) MetricsJSON(c *gin.Context) {
	body := gin.H{"sandbox": h.workspace.SandboxStats()}
	if h.metrics != nil {
		body["backend"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}
