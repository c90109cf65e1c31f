package ui

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"goanova/domain/analysis"
	"goanova/domain/core"
	"goanova/internal/errors"
)

// handleHealth reports liveness
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	a.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRegisterTable stores a parsed table and returns its ID
func (a *App) handleRegisterTable(w http.ResponseWriter, r *http.Request) {
	var payload tablePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.writeError(w, errors.Newf(errors.CodeInvalidInput, "malformed request body: %v", err))
		return
	}

	tbl, err := payload.toTable()
	if err != nil {
		a.writeError(w, err)
		return
	}

	id, err := a.store.Put(r.Context(), payload.Name, tbl)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":   id,
		"name": payload.Name,
		"rows": tbl.NumRows(),
		"cols": tbl.NumCols(),
	})
}

// handleListTables lists stored tables in creation order
func (a *App) handleListTables(w http.ResponseWriter, r *http.Request) {
	infos, err := a.store.List(r.Context())
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]interface{}{
		"tables": infos,
		"count":  len(infos),
	})
}

// handleGetTable returns the full column data of one table
func (a *App) handleGetTable(w http.ResponseWriter, r *http.Request) {
	id, err := a.tableID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	tbl, err := a.store.Get(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, fromTable(id, tbl))
}

// handleDeleteTable removes a table from the store
func (a *App) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	id, err := a.tableID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	if err := a.store.Delete(r.Context(), id); err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleDerive applies a derivation batch to a table. Steps committed
// before a failing spec stay committed; the error still reports the failure.
func (a *App) handleDerive(w http.ResponseWriter, r *http.Request) {
	id, err := a.tableID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var derive analysis.DeriveRequest
	if err := json.NewDecoder(r.Body).Decode(&derive); err != nil {
		a.writeError(w, errors.Newf(errors.CodeInvalidInput, "malformed request body: %v", err))
		return
	}

	artifact, err := a.service.Run(r.Context(), id, analysis.Request{
		Op:     analysis.OpDerive,
		Derive: &derive,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, artifact)
}

// handleAnalyze dispatches a tagged analysis request against a table
func (a *App) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id, err := a.tableID(r)
	if err != nil {
		a.writeError(w, err)
		return
	}

	var req analysis.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, errors.Newf(errors.CodeInvalidInput, "malformed request body: %v", err))
		return
	}

	artifact, err := a.service.Run(r.Context(), id, req)
	if err != nil {
		a.writeError(w, err)
		return
	}

	a.writeJSON(w, http.StatusOK, artifact)
}

// tableID extracts the table ID path parameter
func (a *App) tableID(r *http.Request) (core.TableID, error) {
	id, err := core.ParseTableID(chi.URLParam(r, "tableID"))
	if err != nil {
		return "", errors.Newf(errors.CodeInvalidInput, "invalid table ID: %v", err)
	}
	return id, nil
}
