package http

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"parking-service/internal/clock"
	"parking-service/internal/http/middleware"
	"parking-service/internal/model"
	"parking-service/internal/repository"
	"parking-service/internal/service"
	"parking-service/internal/store"
	"parking-service/internal/utils"
)

type Handler struct {
	monitor        *service.Monitor
	sessionService *service.SessionService
	pricingEngine  *service.PricingEngine
	paymentService *service.PaymentService
	store          store.Store
	events         *repository.RecognitionRepository
	clock          clock.Clock
	log            zerolog.Logger
}

func NewHandler(
	monitor *service.Monitor,
	sessionService *service.SessionService,
	pricingEngine *service.PricingEngine,
	paymentService *service.PaymentService,
	st store.Store,
	events *repository.RecognitionRepository,
	clk clock.Clock,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		monitor:        monitor,
		sessionService: sessionService,
		pricingEngine:  pricingEngine,
		paymentService: paymentService,
		store:          st,
		events:         events,
		clock:          clk,
		log:            log,
	}
}

func (h *Handler) Register(r *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := r.Group("/")
	protected.Use(authMiddleware)

	// OPERATOR - пост оператора на выезде
	operator := protected.Group("/operator")
	operator.Use(requireRole(model.Principal.IsOperator, "operator role required"))
	{
		operator.POST("/capture", h.capture)
		operator.GET("/sessions", h.findSession)
		operator.POST("/payments/link", h.issuePaymentLink)
		operator.POST("/payments/process", h.processPayment)
		operator.GET("/slots", h.listSlots)
	}

	admin := protected.Group("/admin")
	admin.Use(requireRole(model.Principal.IsAdmin, "admin role required"))
	{
		admin.GET("/recognition/events", h.listRecognitionEvents)
		admin.GET("/recognition/plates", h.searchPlates)
		admin.DELETE("/recognition/events", h.purgeRecognitionEvents)
	}
}

// requireRole gates a route group on the principal's role.
func requireRole(allowed func(model.Principal) bool, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := middleware.MustPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse("missing principal"))
			return
		}
		if !allowed(principal) {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse(message))
			return
		}
		c.Next()
	}
}

// capture triggers a single on-demand recognition from the camera.
func (h *Handler) capture(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	result, err := h.monitor.Capture(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

func (h *Handler) findSession(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	plate := strings.TrimSpace(c.Query("plate"))
	if plate == "" {
		c.JSON(http.StatusBadRequest, errorResponse("plate query parameter is required"))
		return
	}

	session, err := h.sessionService.FindActiveByPlate(c.Request.Context(), plate)
	if err != nil {
		h.handleError(c, err)
		return
	}

	class := session.VehicleType
	if !class.Valid() {
		class = model.VehicleClassPrivate
	}
	quote := h.pricingEngine.Quote(class, session)

	c.JSON(http.StatusOK, successResponse(gin.H{
		"session": session,
		"quote":   quote,
	}))
}

func (h *Handler) issuePaymentLink(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Plate       string `json:"plate" binding:"required"`
		VehicleType string `json:"vehicleType"`
		Phone       string `json:"phone"`
		Email       string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	class := model.VehicleClass(req.VehicleType)
	if !class.Valid() {
		class = model.VehicleClassPrivate
	}

	in := service.IssueLinkInput{
		Plate: req.Plate,
		Class: class,
		Phone: req.Phone,
		Email: req.Email,
	}

	session, err := h.sessionService.FindActiveByPlate(c.Request.Context(), req.Plate)
	switch {
	case errors.Is(err, service.ErrNoSession):
		// Ссылку можно выдать и без брони.
	case err != nil:
		h.handleError(c, err)
		return
	default:
		in.Session = session
		if in.Phone == "" {
			in.Phone = session.Phone
		}
		if in.Email == "" {
			in.Email = session.Email
		}
	}

	in.Quote = h.pricingEngine.Quote(class, in.Session)

	pending, err := h.paymentService.IssueLink(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(pending))
}

func (h *Handler) processPayment(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var req struct {
		Plate       string `json:"plate" binding:"required"`
		VehicleType string `json:"vehicleType"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	class := model.VehicleClass(req.VehicleType)
	if !class.Valid() {
		class = model.VehicleClassPrivate
	}

	in := service.ProcessInput{
		Plate: req.Plate,
		Class: class,
	}

	session, err := h.sessionService.FindActiveByPlate(c.Request.Context(), req.Plate)
	switch {
	case errors.Is(err, service.ErrNoSession):
	case err != nil:
		h.handleError(c, err)
		return
	default:
		in.Session = session
		in.Phone = session.Phone
		in.Email = session.Email
	}

	in.Amount = h.pricingEngine.Quote(class, in.Session).Total

	result, err := h.paymentService.Process(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(result))
}

type slotView struct {
	ID               string           `json:"id"`
	Status           model.SlotStatus `json:"status"`
	CarNumber        string           `json:"carNumber,omitempty"`
	CarType          string           `json:"carType,omitempty"`
	Distance         float64          `json:"distance"`
	BookedUntil      string           `json:"bookedUntil,omitempty"`
	RemainingMinutes int              `json:"remainingMinutes"`
}

func (h *Handler) listSlots(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	var slots map[string]model.ParkingSlot
	if err := h.store.Get(c.Request.Context(), store.PathParkingSlots, &slots); err != nil {
		h.handleError(c, err)
		return
	}

	now := h.clock.Now().UTC()
	views := make([]slotView, 0, len(slots))
	for id, slot := range slots {
		view := slotView{
			ID:          id,
			Status:      slot.Status,
			CarNumber:   slot.CarNumber,
			CarType:     slot.CarType,
			Distance:    slot.Distance,
			BookedUntil: slot.BookedUntil,
		}
		if until, ok := model.ParseTimestamp(slot.BookedUntil); ok {
			if remaining := until.Sub(now); remaining > 0 {
				view.RemainingMinutes = int(remaining.Minutes())
			}
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].ID < views[j].ID })

	c.JSON(http.StatusOK, successResponse(views))
}

func (h *Handler) listRecognitionEvents(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	filter := repository.EventFilter{Limit: 100}

	if plate := strings.TrimSpace(c.Query("plate")); plate != "" {
		normalized := utils.NormalizePlate(plate)
		filter.NormalizedPlate = &normalized
	}
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid from timestamp"))
			return
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid to timestamp"))
			return
		}
		filter.To = &to
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid limit"))
			return
		}
		filter.Limit = limit
	}
	if raw := strings.TrimSpace(c.Query("offset")); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, errorResponse("invalid offset"))
			return
		}
		filter.Offset = offset
	}

	events, err := h.events.FindEvents(c.Request.Context(), filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(events))
}

func (h *Handler) searchPlates(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, errorResponse("q query parameter is required"))
		return
	}

	plates, err := h.events.FindPlatesByNormalized(c.Request.Context(), utils.NormalizePlate(query))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(plates))
}

func (h *Handler) purgeRecognitionEvents(c *gin.Context) {
	if _, ok := middleware.MustPrincipal(c); !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("missing principal"))
		return
	}

	days, err := strconv.Atoi(strings.TrimSpace(c.Query("older_than_days")))
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse("invalid older_than_days"))
		return
	}

	deleted, err := h.events.DeleteOldEvents(c.Request.Context(), days)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"deleted": deleted}))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoSession):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNoPlate):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func successResponse(data interface{}) gin.H {
	return gin.H{
		"data": data,
	}
}

func errorResponse(message string) gin.H {
	return gin.H{
		"error": message,
	}
}
