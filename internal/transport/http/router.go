package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rustyeddy/riskcalc/internal/calculator"
	"github.com/rustyeddy/riskcalc/journal"
	"github.com/rustyeddy/riskcalc/risk"
)

type Router struct {
	svc *calculator.Service
}

func NewRouter(svc *calculator.Service) *Router {
	return &Router{svc: svc}
}

// Register mounts the calculator routes under group.
func (r *Router) Register(group *gin.RouterGroup) {
	if group == nil {
		return
	}
	group.POST("/calculate", r.handleCalculate)
	group.GET("/history", r.handleHistory)
	group.GET("/history/:index", r.handleHistoryEntry)
	group.DELETE("/history", r.handleClearHistory)
	group.GET("/symbols", r.handleSymbols)
	group.GET("/defaults", r.handleDefaults)
}

type errorResponse struct {
	Error    string   `json:"error"`
	Kind     string   `json:"kind,omitempty"`
	Messages []string `json:"messages,omitempty"`
}

func (r *Router) handleCalculate(c *gin.Context) {
	var form calculator.FormData
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	res, err := r.svc.Calculate(c.Request.Context(), form)
	if err != nil {
		writeCalcError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func writeCalcError(c *gin.Context, err error) {
	if errors.Is(err, calculator.ErrUnknownMode) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Kind: "form"})
		return
	}

	kind := risk.Kind(err)
	if kind == "" {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	resp := errorResponse{Error: err.Error(), Kind: kind}
	var verr *risk.ValidationError
	if errors.As(err, &verr) {
		resp.Messages = verr.Messages()
	}
	c.JSON(http.StatusUnprocessableEntity, resp)
}

func (r *Router) handleHistory(c *gin.Context) {
	entries, err := r.svc.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "limit": journal.Limit})
}

func (r *Router) handleHistoryEntry(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "index must be an integer"})
		return
	}

	e, err := r.svc.Entry(c.Request.Context(), index)
	if err != nil {
		if errors.Is(err, journal.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": e, "form": r.svc.WithDefaults(e.FormData)})
}

func (r *Router) handleClearHistory(c *gin.Context) {
	if err := r.svc.ClearHistory(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (r *Router) handleSymbols(c *gin.Context) {
	cfg := r.svc.Config()
	c.JSON(http.StatusOK, gin.H{
		"default": cfg.Defaults.Symbol,
		"symbols": cfg.Symbols,
	})
}

func (r *Router) handleDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, r.svc.Defaults())
}
