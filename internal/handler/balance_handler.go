package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-balancer/internal/dto"
	appErrors "github.com/noah-isme/timetable-balancer/pkg/errors"
	"github.com/noah-isme/timetable-balancer/pkg/response"
)

type balancer interface {
	Preview(ctx context.Context, req dto.BalanceRequest) (*dto.BalancePreviewResponse, error)
	Save(ctx context.Context, req dto.SaveBalanceRequest, actorID string) (*dto.BalanceSavedResponse, error)
	Calculate(ctx context.Context, req dto.BalanceRequest, actorID string) (*dto.BalanceSavedResponse, error)
}

type balancePreviewResponse struct {
	Mode     string                      `json:"mode"`
	Proposal *dto.BalancePreviewResponse `json:"proposal"`
}

// BalanceHandler exposes the timetable balancer.
type BalanceHandler struct {
	service balancer
}

// NewBalanceHandler constructs the handler.
func NewBalanceHandler(svc balancer) *BalanceHandler {
	return &BalanceHandler{service: svc}
}

// Calculate godoc
// @Summary Balance meetings over the period and store the schedule
// @Description Runs allocation, tabu balancing and calendar expansion, then persists the schedule with its class times and load balance.
// @Tags Balances
// @Accept json
// @Produce json
// @Param payload body dto.BalanceRequest true "Balance payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /balances [post]
func (h *BalanceHandler) Calculate(c *gin.Context) {
	var req dto.BalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid balance payload"))
		return
	}
	result, err := h.service.Calculate(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Preview godoc
// @Summary Preview a balance without persisting it
// @Tags Balances
// @Accept json
// @Produce json
// @Param payload body dto.BalanceRequest true "Balance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /balances/preview [post]
func (h *BalanceHandler) Preview(c *gin.Context) {
	var req dto.BalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid balance payload"))
		return
	}
	result, err := h.service.Preview(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balancePreviewResponse{Mode: "preview", Proposal: result}, nil)
}

// Save godoc
// @Summary Persist a previewed balance
// @Tags Balances
// @Accept json
// @Produce json
// @Param payload body dto.SaveBalanceRequest true "Proposal reference"
// @Success 201 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Router /balances/save [post]
func (h *BalanceHandler) Save(c *gin.Context) {
	var req dto.SaveBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	result, err := h.service.Save(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
