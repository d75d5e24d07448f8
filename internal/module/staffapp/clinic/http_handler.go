package clinic

import (
	"net/http"

	"github.com/gorilla/mux"
	internalMiddleware "github.com/turnosalud/ts-queue/internal/pkg/middleware"
	"github.com/turnosalud/ts-queue/pkg/errors"
	publicMiddleware "github.com/turnosalud/ts-queue/pkg/middleware"
	"github.com/turnosalud/ts-queue/pkg/response"
	"github.com/turnosalud/ts-queue/pkg/status"
)

type HTTPHandler struct {
	ClinicUseCase ClinicUseCase
}

func InitHTTPHandler(router *mux.Router, staffSession *internalMiddleware.StaffSession, clinicUseCase ClinicUseCase) {
	handler := &HTTPHandler{
		ClinicUseCase: clinicUseCase,
	}

	router.HandleFunc("/ts-queue/v1/staffapp/clinics", publicMiddleware.SetRouteChain(
		handler.GetManyClinic,
		staffSession.RequireRole("admin", "recepcion", "enfermero", "medico"),
		staffSession.Verify,
	)).Methods(http.MethodGet)
}

func (handler HTTPHandler) GetManyClinic(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	resp, err := handler.ClinicUseCase.GetManyClinic(ctx)
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
		Message: "list of active clinics",
		Data:    resp,
	})
}
