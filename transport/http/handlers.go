package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/layer-3/w3o"
	"github.com/layer-3/w3o/core"
)

// Handlers contains the HTTP handlers of the runtime
type Handlers struct {
	octopus *w3o.Octopus
}

// NewHandlers creates new handlers
func NewHandlers(octopus *w3o.Octopus) *Handlers {
	return &Handlers{
		octopus: octopus,
	}
}

// StatusFor maps an error to the status code of its kind
func StatusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindAlreadyExists:
		return http.StatusConflict
	case core.KindNotMet, core.KindNotSet, core.KindLoad:
		return http.StatusPreconditionFailed
	case core.KindForbidden:
		return http.StatusUnauthorized
	case core.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(StatusFor(err), gin.H{"error": err.Error(), "kind": core.KindOf(err)})
}

// Snapshot returns the snapshot of the whole runtime
func (h *Handlers) Snapshot(c *gin.Context) {
	snap, err := h.octopus.Snapshot()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Networks lists the configured networks
func (h *Handlers) Networks(c *gin.Context) {
	c.JSON(http.StatusOK, h.octopus.Networks().Snapshot())
}

// SetCurrentNetwork selects the current network
func (h *Handlers) SetCurrentNetwork(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.octopus.Networks().SetCurrentNetwork(c.Request.Context(), req.Name); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"currentNetworkName": req.Name})
}

// Sessions lists the live sessions
func (h *Handlers) Sessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.octopus.Sessions().Snapshot())
}

// SetCurrentSession makes a live session current
func (h *Handlers) SetCurrentSession(c *gin.Context) {
	var req struct {
		ID string `json:"id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if _, err := core.ParseSessionID(req.ID); err != nil {
		fail(c, err)
		return
	}
	if err := h.octopus.Sessions().SetCurrentSession(req.ID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"currentSessionId": req.ID})
}

// CurrentSession returns the current session
func (h *Handlers) CurrentSession(c *gin.Context) {
	// Session is set by the RequireSession middleware
	session, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session not found in context"})
		return
	}

	c.JSON(http.StatusOK, session.Snapshot())
}

// Login logs in on a network through an auth backend
func (h *Handlers) Login(c *gin.Context) {
	var req struct {
		Network string `json:"network"`
		Type    string `json:"type"`
		Auth    string `json:"auth"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var (
		session *w3o.Session
		err     error
	)
	if req.Network == "" && req.Auth == "" {
		session, err = h.octopus.Auth().LoginDefault(c.Request.Context())
	} else {
		session, err = h.octopus.Auth().Login(c.Request.Context(), req.Network, req.Type, req.Auth)
	}
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": session.ID(),
		"address":   session.Address(),
	})
}

// Logout ends the current session
func (h *Handlers) Logout(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Session not found in context"})
		return
	}

	done, err := h.octopus.Auth().Logout(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	<-done

	c.JSON(http.StatusOK, gin.H{"message": "Logged out", "sessionId": session.ID()})
}
