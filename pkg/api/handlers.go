// Package api exposes the role directory facade over HTTP for the external
// authenticator and authorizer.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/eappere/roledir/pkg/directory"
	"github.com/eappere/roledir/pkg/store"
)

// Handlers provides HTTP handlers for the directory facade
type Handlers struct {
	svc   *directory.Service
	coord *directory.Coordinator
}

// NewHandlers creates handlers over the directory service. coord may be nil
// when the caller runs without a bootstrap coordinator (tests).
func NewHandlers(svc *directory.Service, coord *directory.Coordinator) *Handlers {
	return &Handlers{svc: svc, coord: coord}
}

// RegisterRoutes registers all directory routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	// Role queries
	router.HandleFunc("/v1/roles", h.QueryAll).Methods("GET")
	router.HandleFunc("/v1/roles/{name}/exists", h.Exists).Methods("GET")
	router.HandleFunc("/v1/roles/{name}/superuser", h.IsSuperuser).Methods("GET")
	router.HandleFunc("/v1/roles/{name}/can-login", h.CanLogin).Methods("GET")
	router.HandleFunc("/v1/roles/{name}/granted", h.QueryGranted).Methods("GET")

	// Role lifecycle (seeding, no-op alter, refused mutations)
	router.HandleFunc("/v1/roles/{name}", h.CreateOrReplace).Methods("PUT")
	router.HandleFunc("/v1/roles/{name}", h.Alter).Methods("PATCH")
	router.HandleFunc("/v1/roles/{name}", h.Drop).Methods("DELETE")
	router.HandleFunc("/v1/roles/{grantee}/grants/{role}", h.Grant).Methods("PUT")
	router.HandleFunc("/v1/roles/{revokee}/grants/{role}", h.Revoke).Methods("DELETE")

	// Attributes
	router.HandleFunc("/v1/roles/{name}/attributes/{attr}", h.GetAttribute).Methods("GET")
	router.HandleFunc("/v1/roles/{name}/attributes/{attr}", h.SetAttribute).Methods("PUT")
	router.HandleFunc("/v1/roles/{name}/attributes/{attr}", h.RemoveAttribute).Methods("DELETE")
	router.HandleFunc("/v1/attributes/{attr}", h.QueryAttributeForAll).Methods("GET")

	// Health
	router.HandleFunc("/healthz", h.Health).Methods("GET")
}

// QueryAll returns every known role name, including names that exist only as
// group references.
func (h *Handlers) QueryAll(w http.ResponseWriter, r *http.Request) {
	roles, err := h.svc.QueryAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles.Names()})
}

// Exists reports role existence; by contract this is always true.
func (h *Handlers) Exists(w http.ResponseWriter, r *http.Request) {
	exists, err := h.svc.Exists(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exists": exists})
}

// IsSuperuser reports the role's superuser flag.
func (h *Handlers) IsSuperuser(w http.ResponseWriter, r *http.Request) {
	superuser, err := h.svc.IsSuperuser(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"superuser": superuser})
}

// CanLogin reports the role's login flag.
func (h *Handlers) CanLogin(w http.ResponseWriter, r *http.Request) {
	canLogin, err := h.svc.CanLogin(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"can_login": canLogin})
}

// QueryGranted returns the grantee plus its direct memberships. The mode
// query parameter is accepted; recursive resolution is not supported and the
// value does not change the result.
func (h *Handlers) QueryGranted(w http.ResponseWriter, r *http.Request) {
	mode := directory.QueryMode(r.URL.Query().Get("mode"))
	if mode == "" {
		mode = directory.DirectQuery
	}

	roles, err := h.svc.QueryGranted(r.Context(), mux.Vars(r)["name"], mode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles.Names()})
}

// CreateOrReplace seeds a role record's flags.
func (h *Handlers) CreateOrReplace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsSuperuser bool `json:"is_superuser"`
		CanLogin    bool `json:"can_login"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.svc.CreateOrReplace(r.Context(), mux.Vars(r)["name"], directory.RoleConfig{
		IsSuperuser: req.IsSuperuser,
		CanLogin:    req.CanLogin,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Alter accepts a flag update and applies nothing.
func (h *Handlers) Alter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsSuperuser *bool `json:"is_superuser"`
		CanLogin    *bool `json:"can_login"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err := h.svc.Alter(r.Context(), mux.Vars(r)["name"], directory.RoleUpdate{
		IsSuperuser: req.IsSuperuser,
		CanLogin:    req.CanLogin,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Drop is refused.
func (h *Handlers) Drop(w http.ResponseWriter, r *http.Request) {
	writeError(w, h.svc.Drop(r.Context(), mux.Vars(r)["name"]))
}

// Grant is refused.
func (h *Handlers) Grant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	writeError(w, h.svc.Grant(r.Context(), vars["grantee"], vars["role"]))
}

// Revoke is refused.
func (h *Handlers) Revoke(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	writeError(w, h.svc.Revoke(r.Context(), vars["revokee"], vars["role"]))
}

// GetAttribute returns the attribute value, or 404 when no value is set.
func (h *Handlers) GetAttribute(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	value, ok, err := h.svc.GetAttribute(r.Context(), vars["name"], vars["attr"])
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		http.Error(w, "attribute not set", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"value": value})
}

// SetAttribute upserts the attribute value.
func (h *Handlers) SetAttribute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	if err := h.svc.SetAttribute(r.Context(), vars["name"], vars["attr"], req.Value); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveAttribute deletes the attribute value; removing an unset attribute
// succeeds.
func (h *Handlers) RemoveAttribute(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.RemoveAttribute(r.Context(), vars["name"], vars["attr"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QueryAttributeForAll returns the attribute's value for every role that has
// one set.
func (h *Handlers) QueryAttributeForAll(w http.ResponseWriter, r *http.Request) {
	values, err := h.svc.QueryAttributeForAll(r.Context(), mux.Vars(r)["attr"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"values": values})
}

// Health reports the bootstrap state. The service is ready once bootstrap
// has reached running.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	state := directory.StateRunning
	if h.coord != nil {
		state = h.coord.State()
	}

	status := http.StatusOK
	if state != directory.StateRunning {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{"bootstrap_state": state.String()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps directory and store errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case directory.IsNonexistentRole(err):
		status = http.StatusNotFound
	case errors.Is(err, directory.ErrUnimplemented):
		status = http.StatusNotImplemented
	case errors.Is(err, store.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{"error": err.Error()})
}
