package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/modportal/internal/logger"
	firmmodels "github.com/nikhil/modportal/internal/models/firms"
	firmService "github.com/nikhil/modportal/internal/service/firms"
	projectService "github.com/nikhil/modportal/internal/service/projects"
)

// ClientHandler serves client firms and their projects.
type ClientHandler struct {
	Firms    *firmService.FirmService
	Projects *projectService.ProjectService
	Log      *logger.Logger
}

func NewClientHandler(firms *firmService.FirmService, projects *projectService.ProjectService) *ClientHandler {
	return &ClientHandler{Firms: firms, Projects: projects, Log: logger.NewLogger("client-handler")}
}

type setRolesRequest struct {
	Roles []string `json:"roles"`
}

func (h *ClientHandler) ListFirms(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Firms.Rows(r.Context())
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "load firms")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"firms": rows})
}

func (h *ClientHandler) CreateFirm(w http.ResponseWriter, r *http.Request) {
	var req firmService.CreateFirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	row, err := h.Firms.CreateFirm(r.Context(), req)
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "create firm")
		return
	}
	respondWithJSON(w, http.StatusCreated, row)
}

func (h *ClientHandler) UpdateFirm(w http.ResponseWriter, r *http.Request) {
	var patch firmmodels.Patch
	if !decodeJSON(w, r, &patch) {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Firms.UpdateFirm(r.Context(), id, patch); err != nil {
		respondWithFailure(w, r, h.Log, err, "update firm")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Firm updated"})
}

func (h *ClientHandler) SetFirmRoles(w http.ResponseWriter, r *http.Request) {
	var req setRolesRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := mux.Vars(r)["id"]
	diff, err := h.Firms.SetRoles(r.Context(), id, req.Roles)
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "update roles")
		return
	}
	respondWithJSON(w, http.StatusOK, diff)
}

func (h *ClientHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Projects.Rows(r.Context())
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "load projects")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"projects": rows})
}

// TestProject probes the project's data service.
func (h *ClientHandler) TestProject(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ok, err := h.Projects.TestConnection(r.Context(), id)
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "test connection")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}
