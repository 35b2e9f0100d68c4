package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/farxc/contaazul-sync/internal/response"
	"github.com/farxc/contaazul-sync/internal/store"
)

type GetReceivableResponse = response.APIResponse[*store.Receivable]
type SearchReceivablesResponse = response.APIResponse[[]store.ReceivableDetail]

// @Summary		Search overdue receivables
// @Description	Unpaid receivables due today or earlier whose customer name contains the query, case-insensitive.
// @Tags			Receivables
// @Produce		json
// @Param			name	query		string						true	"Part of the customer name"
// @Success		200		{object}	SearchReceivablesResponse	"Successfully searched receivables"
// @Failure		400		{object}	response.ErrorResponse		"Missing name"
// @Failure		500		{object}	response.ErrorResponse		"Failed to search receivables"
// @Router			/receivables/search [get]
func (app *application) handleSearchReceivables(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeJSONError(w, http.StatusBadRequest, "name is required")
		return
	}

	data, err := app.store.Receivables.SearchOverdueByName(r.Context(), name)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to search receivables: "+err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, &SearchReceivablesResponse{Success: true, Data: data}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Get receivable
// @Tags			Receivables
// @Produce		json
// @Param			id	path		string					true	"Receivable ID"
// @Success		200	{object}	GetReceivableResponse	"Successfully retrieved receivable"
// @Failure		404	{object}	response.ErrorResponse	"Receivable not found"
// @Failure		500	{object}	response.ErrorResponse	"Failed to get receivable"
// @Router			/receivables/{id} [get]
func (app *application) handleGetReceivable(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := app.store.Receivables.GetByID(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "receivable not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get receivable: "+err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, &GetReceivableResponse{Success: true, Data: data}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
