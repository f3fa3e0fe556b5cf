package handler

import (
	"net/http"

	"github.com/lanebid/drayage-portal/internal/domain"
	"github.com/lanebid/drayage-portal/internal/port"

	"github.com/go-chi/chi/v5"
)

// ============================================================
// Catalog — /v1/catalog
// ============================================================

func listOriginsHandler(catalog port.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origins := catalog.ListOrigins()
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.City]{Data: origins, Total: len(origins)})
	}
}

func listDestinationsHandler(catalog port.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dests := catalog.ListDestinations()
		writeJSON(w, http.StatusOK, domain.ListResponse[domain.City]{Data: dests, Total: len(dests)})
	}
}

func getCityHandler(catalog port.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "cityId")
		city, ok := catalog.LookupByID(id)
		if !ok {
			writeError(w, http.StatusNotFound, (&domain.ErrNotFound{Resource: "city", ID: id}).Error())
			return
		}
		writeJSON(w, http.StatusOK, city)
	}
}
