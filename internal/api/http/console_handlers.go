package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/minicode/internal/domain/relay"
)

type consoleResponse struct {
	Entries []relay.Entry `json:"entries"`
	Visible bool          `json:"visible"`
}

// GetConsole returns the console log, oldest first
func (h *Handlers) GetConsole(c *gin.Context) {
	entries := h.workspace.Console()
	if entries == nil {
		entries = []relay.Entry{}
	}
	c.JSON(http.StatusOK, consoleResponse{Entries: entries, Visible: h.workspace.ConsoleVisible()})
}

// ClearConsole discards every entry
func (h *Handlers) ClearConsole(c *gin.Context) {
	h.workspace.ClearConsolePanel()
	c.Status(http.StatusNoContent)
}

// ToggleConsole flips panel visibility
func (h *Handlers) ToggleConsole(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"visible": h.workspace.ToggleConsolePanel()})
}
