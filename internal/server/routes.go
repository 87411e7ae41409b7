package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/signalmesh/trafficctl/internal/cycle"
	"github.com/signalmesh/trafficctl/internal/junction"
	"github.com/signalmesh/trafficctl/internal/observability"
	"github.com/signalmesh/trafficctl/internal/wire"
)

type activateRequest struct {
	Lane *int `json:"lane"`
}

type nextCycleRequest struct {
	NextGreen  []any  `json:"next_green"`
	LatencyMS  int    `json:"latency_ms"`
	ProposalID string `json:"proposal_id"`
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"uptime":    time.Since(s.started).String(),
			"component": "trafficd",
			"version":   "0.1.0",
		})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.store.Snapshot())
	})

	r.GET("/status", func(c *gin.Context) {
		age := s.store.LastUpdateAge()
		snap := s.store.Snapshot()
		status := gin.H{
			"backend":           true,
			"connected":         age < StaleAfter,
			"link_state":        s.link.State().String(),
			"serial_port":       s.link.Describe(),
			"last_update":       snap.LastUpdate,
			"time_since_update": age.Seconds(),
			"system_config": gin.H{
				"cycle_total": cycle.Total,
				"yellow_time": cycle.YellowTime,
				"green_min":   cycle.GreenMin,
				"green_max":   cycle.GreenMax,
			},
			"current_state": snap,
		}
		if remaining, active := s.store.BeaconRemaining(); active {
			status["beacon_remaining"] = remaining.Seconds()
		}
		c.JSON(http.StatusOK, status)
	})

	r.GET("/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"junctions":    junction.Mapping,
			"system_pairs": junction.Pairs,
			"cycle_config": gin.H{
				"total":     cycle.Total,
				"yellow":    cycle.YellowTime,
				"green_min": cycle.GreenMin,
				"green_max": cycle.GreenMax,
				"min_red":   cycle.MinRedTime,
			},
			"normalization": gin.H{
				"max_density": junction.MaxDensity,
				"max_halting": junction.MaxHalting,
			},
		})
	})

	r.POST("/priority/activate", s.handleActivate)
	r.POST("/priority/clear", s.handleClear)
	r.POST("/priority/extend", s.handleExtend)
	r.POST("/cycle/next", s.handleNextCycle)
}

func (s *Server) handleActivate(c *gin.Context) {
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Lane == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing lane parameter"})
		return
	}
	lane := *req.Lane
	if err := s.store.ActivateBeacon(lane); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	j, _ := junction.ByID(lane)
	observability.RecordBeaconActivation(s.cfg.Node, lane, "control")
	s.sendCommand(wire.PriorityCommand(lane))
	log.Warn().Int("lane", lane).Str("junction", j.Name).Msg("beacon_activated")
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"lane":     lane,
		"junction": j.Name,
	})
}

func (s *Server) handleClear(c *gin.Context) {
	if err := s.store.ClearBeacon(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Msg("beacon_cleared")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleExtend(c *gin.Context) {
	if err := s.store.ExtendBeacon(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.sendCommand(wire.ExtendBeaconCommand())
	log.Info().Msg("beacon_extended")
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "beacon extended"})
}

func (s *Server) handleNextCycle(c *gin.Context) {
	var req nextCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.NextGreen == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing next_green parameter"})
		return
	}
	if len(req.NextGreen) != junction.Count {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid next_green format"})
		return
	}

	var requested [junction.Count]int
	for i, raw := range req.NextGreen {
		requested[i] = cycle.CoerceSeconds(raw)
	}
	validated := cycle.ValidateGreens(requested)
	var phaseTimes [junction.Count][4]int
	for i, g := range validated {
		phaseTimes[i] = cycle.PhaseDurations(g)
	}

	s.store.CommitProposal(validated, req.LatencyMS)
	observability.RecordProposal(s.cfg.Node, time.Duration(req.LatencyMS)*time.Millisecond)
	s.sendCommand(wire.NextGreenCommand(validated))
	log.Info().
		Ints("validated_green", validated[:]).
		Int("latency_ms", req.LatencyMS).
		Str("proposal_id", req.ProposalID).
		Msg("next_cycle_committed")

	c.JSON(http.StatusOK, gin.H{
		"status":          "ok",
		"validated_green": validated,
		"phase_times":     phaseTimes,
		"cycle_total":     cycle.Total,
	})
}

// sendCommand is best-effort: downlink failures degrade connectivity
// flags, never HTTP responses.
func (s *Server) sendCommand(cmd wire.Command) {
	if err := s.link.Send(cmd); err != nil {
		log.Warn().Err(err).Str("command", string(cmd)).Msg("field_command_failed")
	}
}
