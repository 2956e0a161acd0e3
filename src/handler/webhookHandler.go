package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"ordergateway/src/model"
)

const maxPayloadBytes = 1 << 20

type signalAcceptor interface {
	Accept(ctx context.Context, raw []byte) (*model.Signal, error)
}

type orderExecutor interface {
	Execute(ctx context.Context, sig *model.Signal) (*model.Confirmation, error)
}

// WebhookHandler returns the handler for inbound trade signals: the
// gateway authenticates and validates the payload, the executor runs the
// bracket submission flow. Every failure maps to a stable JSON error
// object; raw internal errors and the shared secret never reach the
// response.
func WebhookHandler(gw signalAcceptor, exec orderExecutor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxPayloadBytes))
		if err != nil {
			writeError(w, http.StatusBadRequest, "could not read request body")
			return
		}

		sig, err := gw.Accept(r.Context(), body)
		if err != nil {
			writeExecutionError(w, err)
			return
		}

		conf, err := exec.Execute(r.Context(), sig)
		if err != nil {
			writeExecutionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "success",
			"message": fmt.Sprintf("%s %d %s @ %s, TP %s",
				conf.Side, conf.Quantity, conf.Symbol,
				conf.Entry.StringFixed(2), conf.TakeProfit.StringFixed(2)),
			"trade_id": conf.TradeID,
		})
	}
}

func writeExecutionError(w http.ResponseWriter, err error) {
	kind := model.KindOf(err)

	message := "internal error"
	var execErr *model.ExecutionError
	if errors.As(err, &execErr) {
		message = execErr.Message
	}

	writeError(w, statusForKind(kind), message)
}

func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.ErrUnauthorized:
		return http.StatusForbidden
	case model.ErrInvalidSignal:
		return http.StatusBadRequest
	case model.ErrDuplicateSignal:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("failed to encode webhook response")
	}
}
