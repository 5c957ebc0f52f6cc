package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/nikhil/modportal/internal/logger"
	userService "github.com/nikhil/modportal/internal/service/users"
)

type UserHandler struct {
	Service *userService.UserService
	Log     *logger.Logger
}

func NewUserHandler(service *userService.UserService) *UserHandler {
	return &UserHandler{Service: service, Log: logger.NewLogger("user-handler")}
}

type setStatusRequest struct {
	IsActive *bool `json:"is_active"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Rows(r.Context())
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "load users")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"users": rows})
}

func (h *UserHandler) Roles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.Service.Roles(r.Context())
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "load roles")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userService.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.Service.CreateUser(r.Context(), req)
	if err != nil {
		respondWithFailure(w, r, h.Log, err, "create user")
		return
	}
	respondWithJSON(w, http.StatusCreated, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req userService.UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Service.UpdateUser(r.Context(), id, req); err != nil {
		respondWithFailure(w, r, h.Log, err, "update user")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "User updated"})
}

func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IsActive == nil {
		respondWithError(w, http.StatusBadRequest, "is_active is required")
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.Service.SetActive(r.Context(), id, *req.IsActive); err != nil {
		respondWithFailure(w, r, h.Log, err, "update status")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{"id": id, "is_active": *req.IsActive})
}
