package engine

import (
	stderrors "errors"
	"net/http"

	"go.uber.org/zap"

	"chessroom/internal/domain/event"
	"chessroom/internal/errors"
	"chessroom/internal/httpresponse"
	engineuc "chessroom/internal/usecase/engine"
	"chessroom/internal/utils"
)

type SuggestMoveRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

type SuggestMoveResponse struct {
	Move event.Move `json:"move"`
}

// Handler exposes the search engine as a stateless consultation
// endpoint for single-player clients.
type Handler struct {
	log    *zap.SugaredLogger
	worker *engineuc.Worker
}

func NewHandler(log *zap.SugaredLogger, worker *engineuc.Worker) *Handler {
	return &Handler{log: log, worker: worker}
}

func (h *Handler) HandleSuggestMove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpresponse.WriteResponseWithStatus(w, http.StatusMethodNotAllowed,
			httpresponse.ErrorResponse{ErrorDescription: "Only POST method is allowed"})
		return
	}

	var req SuggestMoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	move, err := h.worker.Suggest(r.Context(), req.FEN, req.Depth)
	if err != nil {
		if stderrors.Is(err, errors.ErrNoMoveFound) {
			httpresponse.WriteResponseWithStatus(w, http.StatusUnprocessableEntity,
				httpresponse.ErrorResponse{ErrorDescription: "position has no legal moves"})
			return
		}
		h.log.Errorw("suggest move failed", "fen", req.FEN, "error", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: err.Error()})
		return
	}

	httpresponse.WriteResponseWithStatus(w, http.StatusOK, SuggestMoveResponse{Move: move})
}
