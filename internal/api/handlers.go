package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/tick-replay/internal/backtest"
	"github.com/yourusername/tick-replay/internal/models"
)

func (s *Server) handleDataInfo(c *gin.Context) {
	summary, err := s.svc.DataInfo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": s.svc.ListStrategies()})
}

func (s *Server) handleCapability(c *gin.Context) {
	capability, err := s.svc.StrategyCapability(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, capability)
}

func (s *Server) handleTicks(c *gin.Context) {
	symbol := c.Query("symbol")
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid start time: %v", models.ErrValidation, err))
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid end time: %v", models.ErrValidation, err))
		return
	}

	ticks, err := s.svc.Ticks(c.Request.Context(), symbol, start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticks": newTickDTOs(ticks), "count": len(ticks)})
}

func (s *Server) handleBarPreview(c *gin.Context) {
	symbol := c.Query("symbol")
	timeframe := c.DefaultQuery("timeframe", "1m")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		respondError(c, fmt.Errorf("%w: invalid limit: %v", models.ErrValidation, err))
		return
	}

	bars, err := s.svc.PreviewBars(c.Request.Context(), symbol, timeframe, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bars": newBarDTOs(bars), "count": len(bars)})
}

func (s *Server) handleValidate(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}

	cfg, err := req.toConfig(s.defaults)
	if err == nil {
		err = s.svc.ValidateConfig(c.Request.Context(), cfg)
	}
	if err != nil {
		// A rejected configuration is a successful validation response;
		// only downstream faults surface as HTTP errors.
		if errors.Is(err, models.ErrValidation) || errors.Is(err, models.ErrStrategy) {
			app := models.ClassifyError(err)
			c.JSON(http.StatusOK, gin.H{"valid": false, "kind": app.Kind, "error": app.Message})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}

	cfg, err := req.toConfig(s.defaults)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.svc.Run(c.Request.Context(), cfg)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newResultDTO(result))
}

func (s *Server) handleBatch(c *gin.Context) {
	var req struct {
		Runs []runRequest `json:"runs"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}
	if len(req.Runs) == 0 {
		respondError(c, fmt.Errorf("%w: runs must not be empty", models.ErrValidation))
		return
	}

	configs := make([]backtest.Config, 0, len(req.Runs))
	for i, run := range req.Runs {
		cfg, err := run.toConfig(s.defaults)
		if err != nil {
			respondError(c, fmt.Errorf("%w: run %d: %v", models.ErrValidation, i, err))
			return
		}
		configs = append(configs, cfg)
	}

	outcomes := s.svc.RunBatch(c.Request.Context(), configs)
	body := make([]gin.H, 0, len(outcomes))
	for _, outcome := range outcomes {
		entry := gin.H{
			"symbol":      outcome.Config.Symbol,
			"strategy_id": outcome.Config.StrategyID,
		}
		if outcome.Err != nil {
			app := models.ClassifyError(outcome.Err)
			entry["error"] = app.Message
			entry["kind"] = app.Kind
		} else if outcome.Result != nil {
			entry["result"] = newResultDTO(outcome.Result)
		}
		body = append(body, entry)
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": body})
}
