package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/flightbot/internal/domain"
	"github.com/Domenick1991/flightbot/internal/format"
	"github.com/Domenick1991/flightbot/internal/service/flights"
)

type FlightHandler struct {
	service flights.FlightUseCase
	loc     *time.Location
}

func NewFlightHandler(service flights.FlightUseCase, loc *time.Location) *FlightHandler {
	return &FlightHandler{service: service, loc: loc}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:fltnr", h.get)
}

type flightResponse struct {
	Flights []domain.FlightRecord `json:"flights"`
	Text    []string              `json:"text"`
}

func lookupStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConnectivity):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *FlightHandler) list(c *gin.Context) {
	numbers, err := h.service.List(c.Request.Context(), c.Query("prefix"))
	if err != nil {
		c.JSON(lookupStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, numbers)
}

func (h *FlightHandler) get(c *gin.Context) {
	records, err := h.service.Lookup(c.Request.Context(), c.Param("fltnr"))
	if err != nil {
		c.JSON(lookupStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := flightResponse{Flights: records, Text: make([]string, 0, len(records))}
	for i := range records {
		resp.Text = append(resp.Text, format.New(&records[i], h.loc).Text())
	}
	c.JSON(http.StatusOK, resp)
}
