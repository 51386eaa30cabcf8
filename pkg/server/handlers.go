package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/solver"
)

// handleCatalog returns the conductor table the server solves with.
// GET /api/v1/catalog
func (s *Server) handleCatalog(c *gin.Context) {
	entries := s.catalog.Entries()

	c.JSON(http.StatusOK, gin.H{
		"data": entries,
		"meta": gin.H{
			"count":   len(entries),
			"default": s.catalog.Default().ID,
		},
	})
}

// handleValidate runs the structural checks over a posted snapshot.
// POST /api/v1/validate
func (s *Server) handleValidate(c *gin.Context) {
	net, ok := s.bindNetwork(c)
	if !ok {
		return
	}

	issues := solver.Validate(net.Nodes, net.Edges, s.catalog)
	if issues == nil {
		issues = []solver.Issue{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data": issues,
		"meta": gin.H{
			"count":  len(issues),
			"errors": solver.HasErrors(issues),
		},
	})
}

// handleSolve runs one study over a posted snapshot. A source_kv query
// parameter overrides the document's source voltage. Fatal solve
// conditions come back as 422 with the zero-valued result shape so the
// editor can blank its overlays instead of keeping stale numbers.
// POST /api/v1/solve
func (s *Server) handleSolve(c *gin.Context) {
	net, ok := s.bindNetwork(c)
	if !ok {
		return
	}

	if kvStr := c.Query("source_kv"); kvStr != "" {
		kv, err := strconv.ParseFloat(kvStr, 64)
		if err != nil || kv <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source_kv"})
			return
		}
		net.SourceKV = kv
	}

	res, err := solver.SolveNetwork(net, s.catalog)
	if err != nil {
		s.logger.Warn("Solve rejected", "network", net.Name, "error", err)
		empty := solver.Empty()
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":      err.Error(),
			"nodes":      empty.Nodes,
			"edges":      empty.Edges,
			"system":     empty.System,
			"violations": []policy.Violation{},
		})
		return
	}

	var violations []policy.Violation
	if s.rules != nil {
		violations = s.rules.Check(net.Nodes, net.Edges, res)
	}
	if violations == nil {
		violations = []policy.Violation{}
	}

	c.JSON(http.StatusOK, gin.H{
		"network":    net.Name,
		"nodes":      res.Nodes,
		"edges":      res.Edges,
		"system":     res.System,
		"violations": violations,
	})
}

// bindNetwork decodes the posted network document. On failure it
// responds 400 and returns false.
func (s *Server) bindNetwork(c *gin.Context) (*model.Network, bool) {
	var net model.Network
	if err := c.ShouldBindJSON(&net); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid network document: " + err.Error()})
		return nil, false
	}
	return &net, true
}
