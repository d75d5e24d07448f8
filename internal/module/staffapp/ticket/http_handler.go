package ticket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	internalMiddleware "github.com/turnosalud/ts-queue/internal/pkg/middleware"
	"github.com/turnosalud/ts-queue/pkg/errors"
	publicMiddleware "github.com/turnosalud/ts-queue/pkg/middleware"
	"github.com/turnosalud/ts-queue/pkg/response"
	"github.com/turnosalud/ts-queue/pkg/status"
)

type HTTPHandler struct {
	Validate      *validator.Validate
	TicketUseCase TicketUseCase
}

func InitHTTPHandler(router *mux.Router, staffSession *internalMiddleware.StaffSession, validate *validator.Validate, ticketUseCase TicketUseCase) {
	handler := &HTTPHandler{
		Validate:      validate,
		TicketUseCase: ticketUseCase,
	}

	router.HandleFunc("/ts-queue/v1/staffapp/tickets", publicMiddleware.SetRouteChain(
		handler.AdmitTicket,
		staffSession.RequireRole("recepcion", "enfermero"),
		staffSession.Verify,
	)).Methods(http.MethodPost)

	router.HandleFunc("/ts-queue/v1/staffapp/queues/waiting", publicMiddleware.SetRouteChain(
		handler.ListWaiting,
		staffSession.RequireRole("admin", "recepcion", "enfermero"),
		staffSession.Verify,
	)).Methods(http.MethodGet)

	router.HandleFunc("/ts-queue/v1/staffapp/queues/mine", publicMiddleware.SetRouteChain(
		handler.ListWaitingForAssignedClinic,
		staffSession.RequireRole("medico"),
		staffSession.Verify,
	)).Methods(http.MethodGet)

	router.HandleFunc("/ts-queue/v1/staffapp/queues/active", publicMiddleware.SetRouteChain(
		handler.ListActive,
		staffSession.RequireRole("admin", "recepcion", "enfermero", "medico"),
		staffSession.Verify,
	)).Methods(http.MethodGet)

	router.HandleFunc("/ts-queue/v1/staffapp/tickets/actions", publicMiddleware.SetRouteChain(
		handler.ApplyAction,
		staffSession.RequireRole("medico"),
		staffSession.Verify,
	)).Methods(http.MethodPost)

	router.HandleFunc("/ts-queue/v1/staffapp/tickets/reassignments", publicMiddleware.SetRouteChain(
		handler.Reassign,
		staffSession.RequireRole("recepcion", "enfermero", "medico"),
		staffSession.Verify,
	)).Methods(http.MethodPost)

	router.HandleFunc("/ts-queue/v1/staffapp/tickets/{id}/reassignments", publicMiddleware.SetRouteChain(
		handler.GetReassignments,
		staffSession.RequireRole("admin", "recepcion", "enfermero", "medico"),
		staffSession.Verify,
	)).Methods(http.MethodGet)
}

func (handler HTTPHandler) validate(ctx context.Context, payload interface{}) error {
	err := handler.Validate.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	errorFields := err.(validator.ValidationErrors)

	errMessages := make([]string, len(errorFields))

	for k, errorField := range errorFields {
		errMessages[k] = fmt.Sprintf("invalid '%s' with value '%v'", errorField.Field(), errorField.Value())
	}

	return fmt.Errorf(strings.Join(errMessages, ", "))
}

func (handler HTTPHandler) AdmitTicket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := AdmitTicketRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.TicketUseCase.Admit(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusCreated, response.RESTEnvelope{
		Status:  status.CREATED,
		Message: "ticket has been successfully admitted",
		Data:    resp,
	})
}

func (handler HTTPHandler) ListWaiting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clinicID, err := strconv.ParseInt(r.URL.Query().Get("clinic_id"), 10, 64)
	if err != nil || clinicID <= 0 {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid 'clinic_id' query parameter",
		})

		return
	}

	resp, err := handler.TicketUseCase.ListWaiting(ctx, clinicID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "waiting list",
		Data:    resp,
	})
}

func (handler HTTPHandler) ListWaitingForAssignedClinic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.TicketUseCase.ListWaitingForAssignedClinic(ctx)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "waiting list for the assigned clinic",
		Data:    resp,
	})
}

func (handler HTTPHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clinicID, err := strconv.ParseInt(r.URL.Query().Get("clinic_id"), 10, 64)
	if err != nil || clinicID <= 0 {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid 'clinic_id' query parameter",
		})

		return
	}

	resp, err := handler.TicketUseCase.ListActive(ctx, clinicID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "active list",
		Data:    resp,
	})
}

func (handler HTTPHandler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := ApplyActionRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.TicketUseCase.ApplyAction(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: fmt.Sprintf("ticket has been updated to '%s'", resp.State),
		Data:    resp,
	})
}

func (handler HTTPHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := ReassignTicketRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.JSON(w, http.StatusUnprocessableEntity, response.RESTEnvelope{
			Status:  status.UNPROCESSABLE_ENTITY,
			Message: err.Error(),
		})

		return
	}

	if err := handler.validate(ctx, req); err != nil {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: err.Error(),
		})

		return
	}

	resp, err := handler.TicketUseCase.Reassign(ctx, req)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "ticket has been successfully reassigned",
		Data:    resp,
	})
}

func (handler HTTPHandler) GetReassignments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ticketID := mux.Vars(r)["id"]

	resp, err := handler.TicketUseCase.GetReassignments(ctx, ticketID)
	if err != nil {
		ae := errors.Destruct(err)
		response.JSON(w, ae.HTTPStatusCode, response.RESTEnvelope{
			Status:  ae.Status,
			Message: ae.Message,
		})

		return
	}

	response.JSON(w, http.StatusOK, response.RESTEnvelope{
		Status:  status.OK,
		Message: "list of reassignment records",
		Data:    resp,
	})
}
