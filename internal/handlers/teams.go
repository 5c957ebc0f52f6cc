package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/modportal/internal/logger"
	teamService "github.com/nikhil/modportal/internal/service/team"
)

type TeamHandler struct {
	Service *teamService.TeamService
	Log     *logger.Logger
}

func NewTeamHandler(service *teamService.TeamService) *TeamHandler {
	return &TeamHandler{Service: service, Log: logger.NewLogger("team-handler")}
}

type createTeamRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

type renameTeamRequest struct {
	Name string `json:"name"`
}

type setParentRequest struct {
	ParentID *string `json:"parent_id"`
}

type setMembersRequest struct {
	UserIDs []string `json:"user_ids"`
}

// List returns the team forest with picker options.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Service.Snapshot(r.Context())
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "load teams")
		return
	}
	respondWithJSON(w, http.StatusOK, snap)
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	team, err := h.Service.CreateTeam(r.Context(), req.Name, req.ParentID)
	if err != nil && team.ID != "" {
		// The team exists as a root; report it so the caller can retry the link.
		h.Log.WithContext(r.Context()).Error("Team created without parent", "team_id", team.ID, "error", err)
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to link team to parent",
			"team":  team,
		})
		return
	}
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "create team")
		return
	}
	respondWithJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameTeamRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Service.RenameTeam(r.Context(), id, req.Name); err != nil {
		respondWithFailure(w, r, h.Log, err, "rename team")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Team renamed"})
}

// SetParent sets or clears the parent. A null or empty parent_id makes the
// team a root.
func (h *TeamHandler) SetParent(w http.ResponseWriter, r *http.Request) {
	var req setParentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}

	id := mux.Vars(r)["id"]
	if err := h.Service.SetParent(r.Context(), id, req.ParentID); err != nil {
		respondWithFailure(w, r, h.Log, err, "update parent")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Parent updated"})
}

// SetMembers replaces the membership with the given users.
func (h *TeamHandler) SetMembers(w http.ResponseWriter, r *http.Request) {
	var req setMembersRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := mux.Vars(r)["id"]
	diff, err := h.Service.SetMembers(r.Context(), id, req.UserIDs)
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "update members")
		return
	}
	respondWithJSON(w, http.StatusOK, diff)
}
