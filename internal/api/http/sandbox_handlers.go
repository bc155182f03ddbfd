package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/minicode/internal/domain/sandbox"
	"github.com/GriffinCanCode/minicode/internal/shared/id"
)

// maxRelayBody bounds a single relayed console message
const maxRelayBody = 1 << 20

// SandboxDocument serves the live preview document exactly once, on an opaque origin
func (h *Handlers) SandboxDocument(c *gin.Context) {
	sandboxID, err := id.ParseSandboxID(c.Param("id"))
	if err != nil {
		respondError(c, sandbox.ErrNotFound)
		return
	}

	doc, err := h.workspace.OpenDocument(sandboxID, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Security-Policy", sandbox.DocumentCSP)
	c.Header("Cache-Control", "no-store")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Referrer-Policy", "no-referrer")
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// RelayMessage accepts a console message forwarded by the host page for the sandbox named in the path.
// Messages from a replaced sandbox are answered with 409 and otherwise ignored.
func (h *Handlers) RelayMessage(c *gin.Context) {
	sandboxID, err := id.ParseSandboxID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRelayBody+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read message"})
		return
	}
	if len(raw) > maxRelayBody {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "message too large"})
		return
	}

	if err := h.workspace.DeliverRaw(sandboxID, raw); err != nil {
		h.logger.Debug("Relay message dropped",
			zap.String("sandbox_id", sandboxID.String()),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
