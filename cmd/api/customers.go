package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/farxc/contaazul-sync/internal/ingest"
	"github.com/farxc/contaazul-sync/internal/response"
	"github.com/farxc/contaazul-sync/internal/store"
)

type GetCustomersResponse = response.APIResponse[[]store.CustomerListing]
type GetCustomerSummaryResponse = response.APIResponse[*store.CustomerSummary]
type GetTopDelinquentResponse = response.APIResponse[[]store.DelinquentCustomer]
type GetReceivablesResponse = response.APIResponse[[]store.Receivable]

// cnpjParam returns the digits of the {cnpj} path segment.
func cnpjParam(r *http.Request) string {
	return ingest.DigitsOnly(chi.URLParam(r, "cnpj"))
}

// @Summary		List customers
// @Description	Every customer with CRM columns and whether it has unpaid receivables due today or earlier.
// @Tags			Customers
// @Produce		json
// @Success		200	{object}	GetCustomersResponse	"Successfully retrieved customers"
// @Failure		500	{object}	response.ErrorResponse	"Failed to list customers"
// @Router			/customers [get]
func (app *application) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	data, err := app.store.Customers.List(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to list customers: "+err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, &GetCustomersResponse{Success: true, Data: data}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Top delinquent customers
// @Description	Customers ranked by overdue unpaid amount.
// @Tags			Customers
// @Produce		json
// @Param			limit	query		int							false	"Limit the number of results"	default(10)
// @Success		200		{object}	GetTopDelinquentResponse	"Successfully retrieved delinquent customers"
// @Failure		400		{object}	response.ErrorResponse		"Invalid limit"
// @Failure		500		{object}	response.ErrorResponse		"Failed to get delinquent customers"
// @Router			/customers/delinquent [get]
func (app *application) handleGetTopDelinquent(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := app.store.Customers.TopDelinquent(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get delinquent customers: "+err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, &GetTopDelinquentResponse{Success: true, Data: data}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Customer summary
// @Description	Customer registration, CRM data and lifetime value. Punctuation in the CNPJ is ignored.
// @Tags			Customers
// @Produce		json
// @Param			cnpj	path		string						true	"Customer CNPJ"
// @Success		200		{object}	GetCustomerSummaryResponse	"Successfully retrieved customer"
// @Failure		400		{object}	response.ErrorResponse		"Invalid CNPJ"
// @Failure		404		{object}	response.ErrorResponse		"Customer not found"
// @Failure		500		{object}	response.ErrorResponse		"Failed to get customer"
// @Router			/customers/{cnpj} [get]
func (app *application) handleGetCustomerSummary(w http.ResponseWriter, r *http.Request) {
	cnpj := cnpjParam(r)
	if cnpj == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid cnpj")
		return
	}

	data, err := app.store.Customers.GetSummaryByCNPJ(r.Context(), cnpj)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "customer not found")
		return
	}
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get customer: "+err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, &GetCustomerSummaryResponse{Success: true, Data: data}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}

// @Summary		Customer receivables
// @Description	Full receivable history of a customer: overdue first, then due today, future and paid.
// @Tags			Customers
// @Produce		json
// @Param			cnpj	path		string					true	"Customer CNPJ"
// @Success		200		{object}	GetReceivablesResponse	"Successfully retrieved receivables"
// @Failure		400		{object}	response.ErrorResponse	"Invalid CNPJ"
// @Failure		500		{object}	response.ErrorResponse	"Failed to get receivables"
// @Router			/customers/{cnpj}/receivables [get]
func (app *application) handleGetCustomerReceivables(w http.ResponseWriter, r *http.Request) {
	cnpj := cnpjParam(r)
	if cnpj == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid cnpj")
		return
	}

	data, err := app.store.Receivables.ListByCNPJ(r.Context(), cnpj)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to get receivables: "+err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, &GetReceivablesResponse{Success: true, Data: data}); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to write response")
	}
}
