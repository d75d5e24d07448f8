package board

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/turnosalud/ts-queue/pkg/errors"
	"github.com/turnosalud/ts-queue/pkg/response"
	"github.com/turnosalud/ts-queue/pkg/status"
)

// HTTPHandler serves the public display surface: the board snapshot and
// the realtime stream. Displays are unauthenticated consumers.
type HTTPHandler struct {
	BoardUseCase  BoardUseCase
	StreamHandler *StreamHandler
}

func InitHTTPHandler(router *mux.Router, boardUseCase BoardUseCase, streamHandler *StreamHandler) {
	handler := &HTTPHandler{
		BoardUseCase:  boardUseCase,
		StreamHandler: streamHandler,
	}

	router.HandleFunc("/ts-queue/v1/displayapp/board", handler.GetBoard).Methods(http.MethodGet)
	router.HandleFunc("/ts-queue/v1/displayapp/stream", streamHandler.Stream).Methods(http.MethodGet)
}

func (handler HTTPHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	clinicID, err := strconv.ParseInt(r.URL.Query().Get("clinic_id"), 10, 64)
	if err != nil || clinicID <= 0 {
		response.JSON(w, http.StatusBadRequest, response.RESTEnvelope{
			Status:  status.BAD_REQUEST,
			Message: "invalid 'clinic_id' query parameter",
		})

		return
	}

	resp, err := handler.BoardUseCase.GetBoard(ctx, clinicID)
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
		Message: "display board",
		Data:    resp,
	})
}
