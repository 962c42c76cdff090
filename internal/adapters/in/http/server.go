// Package http exposes the dispatch engine's REST API on echo. Handlers
// translate requests into commands and queries and map the engine's benign
// outcomes to HTTP statuses: a lost race is 409, not a server error.
package http

import (
	"errors"
	"net/http"

	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// Server coordinates between HTTP handlers and application use cases.
type Server struct {
	createOrderHandler     commands.CreateOrderCommandHandler
	confirmOrderHandler    commands.ConfirmOrderCommandHandler
	cancelOrderHandler     commands.CancelOrderCommandHandler
	acceptOrderHandler     commands.AcceptOrderCommandHandler
	rejectOrderHandler     commands.RejectOrderCommandHandler
	progressOrderHandler   commands.ProgressOrderCommandHandler
	registerCourierHandler commands.RegisterCourierCommandHandler
	reportLocationHandler  commands.ReportCourierLocationCommandHandler
	setAvailabilityHandler commands.SetCourierAvailabilityCommandHandler

	getAllCouriersHandler  queries.GetAllCouriersQueryHandler
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler
}

// NewServer creates the HTTP server over the engine's use cases.
func NewServer(
	createOrderHandler commands.CreateOrderCommandHandler,
	confirmOrderHandler commands.ConfirmOrderCommandHandler,
	cancelOrderHandler commands.CancelOrderCommandHandler,
	acceptOrderHandler commands.AcceptOrderCommandHandler,
	rejectOrderHandler commands.RejectOrderCommandHandler,
	progressOrderHandler commands.ProgressOrderCommandHandler,
	registerCourierHandler commands.RegisterCourierCommandHandler,
	reportLocationHandler commands.ReportCourierLocationCommandHandler,
	setAvailabilityHandler commands.SetCourierAvailabilityCommandHandler,
	getAllCouriersHandler queries.GetAllCouriersQueryHandler,
	getActiveOrdersHandler queries.GetActiveOrdersQueryHandler,
) *Server {
	return &Server{
		createOrderHandler:     createOrderHandler,
		confirmOrderHandler:    confirmOrderHandler,
		cancelOrderHandler:     cancelOrderHandler,
		acceptOrderHandler:     acceptOrderHandler,
		rejectOrderHandler:     rejectOrderHandler,
		progressOrderHandler:   progressOrderHandler,
		registerCourierHandler: registerCourierHandler,
		reportLocationHandler:  reportLocationHandler,
		setAvailabilityHandler: setAvailabilityHandler,
		getAllCouriersHandler:  getAllCouriersHandler,
		getActiveOrdersHandler: getActiveOrdersHandler,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.GetActiveOrders)
	api.POST("/orders/:id/confirm", s.ConfirmOrder)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.POST("/orders/:id/accept", s.AcceptOrder)
	api.POST("/orders/:id/reject", s.RejectOrder)
	api.POST("/orders/:id/progress", s.ProgressOrder)

	api.POST("/couriers", s.RegisterCourier)
	api.GET("/couriers", s.GetCouriers)
	api.POST("/couriers/:id/location", s.ReportCourierLocation)
	api.POST("/couriers/:id/availability", s.SetCourierAvailability)
}

// APIError is the error payload for every non-2xx response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func errorResponse(ctx echo.Context, code int, message string) error {
	return ctx.JSON(code, APIError{Code: code, Message: message})
}

// mapError translates engine outcomes into HTTP statuses.
func mapError(ctx echo.Context, err error) error {
	var notFound *errs.ObjectNotFoundError
	switch {
	case errors.Is(err, commands.ErrNoOrderFound),
		errors.Is(err, commands.ErrNoCourierFound),
		errors.As(err, &notFound):
		return errorResponse(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, commands.ErrAlreadyResolved):
		return errorResponse(ctx, http.StatusConflict, "attempt already resolved")
	case errors.Is(err, commands.ErrNoCourierAvailable),
		errors.Is(err, commands.ErrRetryCeilingExceeded):
		// The command succeeded in terminating the order; report it.
		return errorResponse(ctx, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, errs.ErrValueIsInvalid),
		errors.Is(err, errs.ErrValueIsRequired),
		errors.Is(err, errs.ErrValueIsOutOfRange),
		errors.Is(err, order.ErrCourierIsNotHolder),
		errors.Is(err, courier.ErrBusyIsEngineOwned),
		errors.Is(err, courier.ErrCourierIsBusy):
		return errorResponse(ctx, http.StatusBadRequest, err.Error())
	default:
		return errorResponse(ctx, http.StatusInternalServerError, "internal error")
	}
}

func parseUUID(raw string) (kernel.UUID, error) {
	return kernel.UUIDFromString(raw)
}

// NewOrderRequest is the body of POST /orders.
type NewOrderRequest struct {
	CustomerID    string  `json:"customerId"`
	DropoffLat    float64 `json:"dropoffLat"`
	DropoffLon    float64 `json:"dropoffLon"`
	Notes         string  `json:"notes"`
	PaymentMethod string  `json:"paymentMethod"`
}

// CreateOrder handles POST /api/v1/orders.
func (s *Server) CreateOrder(ctx echo.Context) error {
	var req NewOrderRequest
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	customerID, err := parseUUID(req.CustomerID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid customer id")
	}

	dropoff, err := kernel.NewGeoPoint(req.DropoffLat, req.DropoffLon)
	if err != nil {
		return mapError(ctx, err)
	}

	orderID := kernel.NewUUID()

	command, err := commands.NewCreateOrderCommand(orderID, customerID, dropoff, req.Notes, req.PaymentMethod)
	if err != nil {
		return mapError(ctx, err)
	}

	if err = s.createOrderHandler.Handle(ctx.Request().Context(), command); err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"id": orderID.String()})
}

// GetActiveOrders handles GET /api/v1/orders.
func (s *Server) GetActiveOrders(ctx echo.Context) error {
	orders, err := s.getActiveOrdersHandler.Handle(ctx.Request().Context(), queries.NewGetActiveOrdersQuery())
	if err != nil {
		return errorResponse(ctx, http.StatusInternalServerError, "failed to retrieve orders")
	}

	type orderResponse struct {
		ID                string  `json:"id"`
		Status            string  `json:"status"`
		DropoffLat        float64 `json:"dropoffLat"`
		DropoffLon        float64 `json:"dropoffLon"`
		DistanceKm        float64 `json:"distanceKm"`
		EtaMinutes        int     `json:"etaMinutes"`
		AssignedCourierID *string `json:"assignedCourierId,omitempty"`
		AttemptCount      int     `json:"attemptCount"`
	}

	response := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		item := orderResponse{
			ID:           o.ID.String(),
			Status:       o.Status,
			DropoffLat:   o.Dropoff.Latitude(),
			DropoffLon:   o.Dropoff.Longitude(),
			DistanceKm:   o.DistanceKm,
			EtaMinutes:   o.EtaMinutes,
			AttemptCount: o.AttemptCount,
		}
		if o.AssignedCourierID != nil {
			holder := o.AssignedCourierID.String()
			item.AssignedCourierID = &holder
		}
		response = append(response, item)
	}

	return ctx.JSON(http.StatusOK, response)
}

// ConfirmOrder handles POST /api/v1/orders/:id/confirm.
func (s *Server) ConfirmOrder(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid order id")
	}

	command, err := commands.NewConfirmOrderCommand(orderID)
	if err != nil {
		return mapError(ctx, err)
	}

	if err = s.confirmOrderHandler.Handle(ctx.Request().Context(), command); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel.
func (s *Server) CancelOrder(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid order id")
	}

	command, err := commands.NewCancelOrderCommand(orderID)
	if err != nil {
		return mapError(ctx, err)
	}

	if err = s.cancelOrderHandler.Handle(ctx.Request().Context(), command); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// CourierActionRequest is the body of accept and reject calls.
type CourierActionRequest struct {
	CourierID string `json:"courierId"`
}

// AcceptOrder handles POST /api/v1/orders/:id/accept.
func (s *Server) AcceptOrder(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid order id")
	}

	var req CourierActionRequest
	if err = ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	courierID, err := parseUUID(req.CourierID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid courier id")
	}

	command, err := commands.NewAcceptOrderCommand(orderID, courierID)
	if err != nil {
		return mapError(ctx, err)
	}

	if err = s.acceptOrderHandler.Handle(ctx.Request().Context(), command); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// RejectOrder handles POST /api/v1/orders/:id/reject.
func (s *Server) RejectOrder(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid order id")
	}

	var req CourierActionRequest
	if err = ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	courierID, err := parseUUID(req.CourierID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid courier id")
	}

	command, err := commands.NewRejectOrderCommand(orderID, courierID)
	if err != nil {
		return mapError(ctx, err)
	}

	if err = s.rejectOrderHandler.Handle(ctx.Request().Context(), command); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// ProgressRequest is the body of POST /orders/:id/progress.
type ProgressRequest struct {
	CourierID string `json:"courierId"`
	Status    string `json:"status"`
}

// ProgressOrder handles POST /api/v1/orders/:id/progress.
func (s *Server) ProgressOrder(ctx echo.Context) error {
	orderID, err := parseUUID(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid order id")
	}

	var req ProgressRequest
	if err = ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	courierID, err := parseUUID(req.CourierID)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid courier id")
	}

	target, err := order.StatusFromString(req.Status)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid status")
	}

	command, err := commands.NewProgressOrderCommand(orderID, courierID, target)
	if err != nil {
		return mapError(ctx, err)
	}

	if err = s.progressOrderHandler.Handle(ctx.Request().Context(), command); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// NewCourierRequest is the body of POST /couriers.
type NewCourierRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Vehicle   string `json:"vehicle"`
	PushToken string `json:"pushToken"`
}

// RegisterCourier handles POST /api/v1/couriers.
func (s *Server) RegisterCourier(ctx echo.Context) error {
	var req NewCourierRequest
	if err := ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	courierID := kernel.NewUUID()

	command, err := commands.NewRegisterCourierCommand(courierID, req.Name, req.Phone, req.Vehicle, req.PushToken)
	if err != nil {
		return mapError(ctx, err)
	}

	if err = s.registerCourierHandler.Handle(ctx.Request().Context(), command); err != nil {
		return mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, map[string]string{"id": courierID.String()})
}

// GetCouriers handles GET /api/v1/couriers.
func (s *Server) GetCouriers(ctx echo.Context) error {
	couriers, err := s.getAllCouriersHandler.Handle(ctx.Request().Context(), queries.NewGetAllCouriersQuery())
	if err != nil {
		return errorResponse(ctx, http.StatusInternalServerError, "failed to retrieve couriers")
	}

	type courierResponse struct {
		ID           string   `json:"id"`
		Name         string   `json:"name"`
		Vehicle      string   `json:"vehicle"`
		Availability string   `json:"availability"`
		IsActive     bool     `json:"isActive"`
		Lat          *float64 `json:"lat,omitempty"`
		Lon          *float64 `json:"lon,omitempty"`
	}

	response := make([]courierResponse, 0, len(couriers))
	for _, c := range couriers {
		item := courierResponse{
			ID:           c.ID.String(),
			Name:         c.Name,
			Vehicle:      c.Vehicle,
			Availability: c.Availability,
			IsActive:     c.IsActive,
		}
		if c.Position != nil {
			lat, lon := c.Position.Latitude(), c.Position.Longitude()
			item.Lat, item.Lon = &lat, &lon
		}
		response = append(response, item)
	}

	return ctx.JSON(http.StatusOK, response)
}

// LocationRequest is the body of POST /couriers/:id/location.
type LocationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ReportCourierLocation handles POST /api/v1/couriers/:id/location.
func (s *Server) ReportCourierLocation(ctx echo.Context) error {
	courierID, err := parseUUID(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid courier id")
	}

	var req LocationRequest
	if err = ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	position, err := kernel.NewGeoPoint(req.Lat, req.Lon)
	if err != nil {
		return mapError(ctx, err)
	}

	command, err := commands.NewReportCourierLocationCommand(courierID, position)
	if err != nil {
		return mapError(ctx, err)
	}

	if err = s.reportLocationHandler.Handle(ctx.Request().Context(), command); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

// AvailabilityRequest is the body of POST /couriers/:id/availability.
type AvailabilityRequest struct {
	Availability string `json:"availability"`
}

// SetCourierAvailability handles POST /api/v1/couriers/:id/availability.
func (s *Server) SetCourierAvailability(ctx echo.Context) error {
	courierID, err := parseUUID(ctx.Param("id"))
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid courier id")
	}

	var req AvailabilityRequest
	if err = ctx.Bind(&req); err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid request body")
	}

	target, err := courier.AvailabilityFromString(req.Availability)
	if err != nil {
		return errorResponse(ctx, http.StatusBadRequest, "invalid availability")
	}

	command, err := commands.NewSetCourierAvailabilityCommand(courierID, target)
	if err != nil {
		return mapError(ctx, err)
	}

	if err = s.setAvailabilityHandler.Handle(ctx.Request().Context(), command); err != nil {
		return mapError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}
