package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/response"
	"github.com/farxc/contaazul-sync/internal/store"
)

type GetSyncHistoryResponse = response.APIResponse[[]store.SyncRun]
type StartSyncResponse = response.APIResponse[*StartSyncPayload]

type StartSyncPayload struct {
	Sequence string   `json:"sequence"`
	Entities []string `json:"entities"`
}

var validate = validator.New()

type startSyncInput struct {
	Sequence string `json:"sequence" validate:"required,oneof=finance catalog all"`
}

// @Summary		Start a sync
// @Description	Starts an entity sequence in the background. Only one sync runs at a time.
// @Tags			Sync
// @Accept			json
// @Produce		json
// @Param			sync	body		object{sequence:string}	true	"Sequence to run: finance, catalog or all"
// @Success		202		{object}	StartSyncResponse		"Sync started"
// @Failure		400		{object}	response.ErrorResponse	"Invalid request payload"
// @Failure		409		{object}	response.ErrorResponse	"A sync is already running"
// @Router			/sync [post]
func (app *application) handleStartSync(w http.ResponseWriter, r *http.Request) {
	var input startSyncInput
	if err := readJSON(w, r, &input); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request payload: "+err.Error())
		return
	}
	input.Sequence = strings.ToLower(strings.TrimSpace(input.Sequence))
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("sequence must be one of finance, catalog, all (failed %q)", verrs[0].Tag()))
			return
		}
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	names, err := ingest.ResolveSequence(input.Sequence)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !app.startSync(names) {
		writeJSONError(w, http.StatusConflict, "a sync is already running")
		return
	}

	resp := &StartSyncResponse{
		Success: true,
		Message: "Sync started",
		Data:    &StartSyncPayload{Sequence: input.Sequence, Entities: names},
	}
	if err := writeJSON(w, http.StatusAccepted, resp); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// startSync launches the run unless one is in flight.
func (app *application) startSync(names []string) bool {
	const component = "SyncHandler"

	app.syncMu.Lock()
	if app.syncing {
		app.syncMu.Unlock()
		return false
	}
	app.syncing = true
	app.syncMu.Unlock()

	app.syncWG.Add(1)
	go func() {
		defer app.syncWG.Done()
		defer func() {
			app.syncMu.Lock()
			app.syncing = false
			app.syncMu.Unlock()
		}()

		rep := app.runner.Run(app.ctx, names, app.window(time.Now()))
		app.log.Info(component, "Background sync finished: entities=%s succeeded=%d failed=%d",
			strings.Join(names, ","), rep.Summary.Succeeded, rep.Summary.Failed)
	}()
	return true
}

// @Summary		Get sync history
// @Description	Get a list of the latest sync runs.
// @Tags			Sync
// @Produce		json
// @Param			limit	query		int						false	"Limit the number of results"	default(10)
// @Success		200		{object}	GetSyncHistoryResponse	"Successfully retrieved latest sync runs"
// @Failure		400		{object}	response.ErrorResponse	"Invalid limit"
// @Failure		500		{object}	response.ErrorResponse	"Failed to get sync history"
// @Router			/sync/history [get]
func (app *application) handleGetSyncHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := app.store.SyncRuns.GetLatest(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get sync history: "+err.Error())
		return
	}

	response := &GetSyncHistoryResponse{
		Success: true,
		Data:    data,
		Message: "Successfully retrieved latest sync runs",
	}

	if err := writeJSON(w, http.StatusOK, response); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
