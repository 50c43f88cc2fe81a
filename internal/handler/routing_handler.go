package handler

import (
	"github.com/gin-gonic/gin"

	"helix/internal/routing"
)

// RoutingHandler serves the routing taxonomy.
type RoutingHandler struct {
	tax *routing.Taxonomy
}

// NewRoutingHandler creates a new RoutingHandler.
func NewRoutingHandler(tax *routing.Taxonomy) *RoutingHandler {
	return &RoutingHandler{tax: tax}
}

type processEntry struct {
	Code      string   `json:"code"`
	FileTypes []string `json:"file_types"`
}

type departmentEntry struct {
	Code      string         `json:"code"`
	Name      string         `json:"name"`
	Processes []processEntry `json:"processes"`
}

type catalogue struct {
	Departments []departmentEntry  `json:"departments"`
	FileTypes   []routing.FileType `json:"file_types"`
}

// Catalogue handles GET /api/v1/routing
// @Summary Routing taxonomy
// @Description Departments with their processes and each process's file types, plus file type extensions
// @Tags routing
// @Produce json
// @Success 200 {object} APIResponse "Routing catalogue"
// @Security BearerAuth
// @Router /routing [get]
func (h *RoutingHandler) Catalogue(c *gin.Context) {
	out := catalogue{FileTypes: h.tax.AllFileTypes()}
	for _, code := range h.tax.Departments() {
		d, _ := h.tax.Department(code)
		entry := departmentEntry{Code: d.Code, Name: d.Name}
		for _, p := range d.Processes {
			entry.Processes = append(entry.Processes, processEntry{Code: p, FileTypes: h.tax.FileTypes(p)})
		}
		out.Departments = append(out.Departments, entry)
	}
	RespondOK(c, out)
}
