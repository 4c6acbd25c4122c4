package storefront

import (
	"fmt"
	"net/http"

	"bistro/internal/configurator"

	"github.com/gin-gonic/gin"
)

// Item configuration endpoints. Each started configuration owns a
// configurator whose timers live until the flow is closed, so a UI unmount
// must call close to stop them.

func (s *Server) handleConfigureStart(c *gin.Context) {
	item, err := s.api.GetMenuItem(c.Param("cfgID"))
	if err != nil {
		respondError(c, err)
		return
	}

	s.mu.Lock()
	s.nextCfg++
	id := fmt.Sprintf("cfg-%d", s.nextCfg)
	state := &configState{id: id, item: item, cfg: configurator.New(item)}
	s.configs[id] = state
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"config_id": id,
		"item":      item,
		"total":     state.cfg.Total(),
	})
}

func (s *Server) handleConfigureState(c *gin.Context) {
	state, ok := s.config(c.Param("cfgID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "configuration not found"})
		return
	}
	c.JSON(http.StatusOK, configView(state))
}

func (s *Server) handleConfigureChange(c *gin.Context) {
	state, ok := s.config(c.Param("cfgID"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "configuration not found"})
		return
	}
	var req struct {
		Action      string `json:"action"` // toggle | increment | decrement | variation | quantity
		GroupID     string `json:"group_id"`
		OptionID    string `json:"option_id"`
		VariationID string `json:"variation_id"`
		Quantity    int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch req.Action {
	case "toggle":
		state.cfg.Toggle(req.GroupID, req.OptionID)
	case "increment":
		state.cfg.Increment(req.GroupID, req.OptionID)
	case "decrement":
		state.cfg.Decrement(req.GroupID, req.OptionID)
	case "variation":
		state.cfg.SelectVariation(req.VariationID)
	case "quantity":
		state.cfg.SetQuantity(req.Quantity)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action"})
		return
	}
	c.JSON(http.StatusOK, configView(state))
}

func (s *Server) handleConfigureClose(c *gin.Context) {
	s.mu.Lock()
	state, ok := s.configs[c.Param("cfgID")]
	if ok {
		delete(s.configs, c.Param("cfgID"))
	}
	s.mu.Unlock()
	if ok {
		state.cfg.Close()
	}
	c.JSON(http.StatusOK, gin.H{"message": "closed"})
}

func (s *Server) config(id string) (*configState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.configs[id]
	return state, ok
}

func configView(state *configState) gin.H {
	variationID, selections, quantity := state.cfg.Snapshot()
	result := state.cfg.Validate()

	groupErrors := make(map[string]string)
	for _, g := range state.item.OptionGroups {
		if msg, ok := state.cfg.GroupError(g.ID); ok {
			groupErrors[g.ID] = msg
		}
	}
	return gin.H{
		"config_id":    state.id,
		"variation_id": variationID,
		"selections":   selections,
		"quantity":     quantity,
		"total":        state.cfg.Total(),
		"is_valid":     result.IsValid,
		"message":      result.Message,
		"group_errors": groupErrors,
	}
}
