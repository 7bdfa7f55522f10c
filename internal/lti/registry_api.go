package lti

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

/*
Admin API for platform registration.

Mount under a guarded prefix, e.g.:

	r.Route("/admin", func(ar chi.Router) {
		ar.Use(auth.AdminBasicAuth(cfg.AdminUser, cfg.AdminPassHash))
		ar.Mount("/platforms", lti.RegistryRoutes(store))
	})
*/

// RegistryRoutes returns CRUD endpoints over a RegistryStore.
func RegistryRoutes(store RegistryStore) http.Handler {
	r := chi.NewRouter()
	r.Post("/", registerPlatform(store))
	r.Get("/", listPlatforms(store))
	r.Get("/{platformID}", getPlatform(store))
	r.Delete("/{platformID}", deletePlatform(store))
	return r
}

func registerPlatform(store RegistryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p Platform
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			writeAPIErr(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
		p.Issuer = strings.TrimSpace(p.Issuer)
		p.ClientID = strings.TrimSpace(p.ClientID)
		registered, err := store.Register(r.Context(), p)
		if err != nil {
			if ReasonCode(err) == CodeConfigError {
				writeAPIErr(w, http.StatusBadRequest, err.Error())
				return
			}
			writeAPIErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusCreated, registered)
	}
}

func listPlatforms(store RegistryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := store.List(r.Context())
		if err != nil {
			writeAPIErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		if items == nil {
			items = []Platform{}
		}
		WriteJSON(w, http.StatusOK, items)
	}
}

func getPlatform(store RegistryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.Get(r.Context(), chi.URLParam(r, "platformID"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeAPIErr(w, http.StatusNotFound, "platform not found")
				return
			}
			writeAPIErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		WriteJSON(w, http.StatusOK, p)
	}
}

func deletePlatform(store RegistryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.Delete(r.Context(), chi.URLParam(r, "platformID")); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeAPIErr(w, http.StatusNotFound, "platform not found")
				return
			}
			writeAPIErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeAPIErr(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
