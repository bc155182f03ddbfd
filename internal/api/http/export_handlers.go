package http

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/minicode/internal/domain/export"
)

const archiveBaseName = "minicode"

// Export returns the three project files as a name to content map
func (h *Handlers) Export(c *gin.Context) {
	c.JSON(http.StatusOK, h.workspace.ExportFiles())
}

// ExportArchive streams the project files as zip, tar.gz or tar.zst
func (h *Handlers) ExportArchive(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteArchive(&buf, h.workspace.ExportFiles(), format, time.Now()); err != nil {
		respondError(c, err)
		return
	}

	filename := archiveBaseName + format.Extension()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, mimetype.Detect(buf.Bytes()).String(), buf.Bytes())
}

// ExportFile downloads one of index.html, styles.css or script.js
func (h *Handlers) ExportFile(c *gin.Context) {
	name := c.Param("filename")
	content, err := export.File(h.workspace.State(), name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, export.ContentType(name, []byte(content)), []byte(content))
}
