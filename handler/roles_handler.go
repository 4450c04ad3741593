package handler

import (
	"net/http"

	"grievancedesk/roles"
)

// RolesHandler exposes the role catalog to UIs
type RolesHandler struct {
	catalog *roles.Catalog
}

// NewRolesHandler creates a new roles handler
func NewRolesHandler(catalog *roles.Catalog) *RolesHandler {
	return &RolesHandler{catalog: catalog}
}

// List handles GET /api/v1/roles
func (h *RolesHandler) List(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.catalog.Infos())
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
