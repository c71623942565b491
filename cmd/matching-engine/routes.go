package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	commonerrors "tender-engine/internal/common/errors"
	"tender-engine/internal/models"
	"tender-engine/internal/services"
)

// registerInspectionRoutes adds read-only endpoints to the admin
// listener. Mutations go through the library API, not this surface.
func registerInspectionRoutes(mux *http.ServeMux, tenders *services.TenderService, bids *services.BidService, notifications *services.NotificationService) {
	mux.HandleFunc("GET /api/tenders", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filters := models.TenderFilters{
			Category: q.Get("category"),
			Status:   models.TenderStatus(q.Get("status")),
			Urgency:  models.Urgency(q.Get("urgency")),
			City:     q.Get("city"),
			District: q.Get("district"),
			Page:     queryInt(q.Get("page")),
			Limit:    queryInt(q.Get("limit")),
		}
		result, err := tenders.ListTenders(r.Context(), filters)
		respond(w, result, err)
	})

	mux.HandleFunc("GET /api/tenders/{id}", func(w http.ResponseWriter, r *http.Request) {
		result, err := tenders.GetTender(r.Context(), r.PathValue("id"))
		respond(w, result, err)
	})

	mux.HandleFunc("GET /api/tenders/{id}/bids", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		sortBy := models.BidSortBy(q.Get("sortBy"))
		if sortBy == "" {
			sortBy = models.SortByPrice
		}
		direction := models.SortDirection(q.Get("direction"))
		if direction == "" {
			direction = models.SortAsc
		}
		result, err := bids.ListBids(r.Context(), r.PathValue("id"), sortBy, direction)
		respond(w, result, err)
	})

	mux.HandleFunc("GET /api/professionals/{id}/notifications", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		// This listener is internal; the professional is taken at face
		// value rather than authenticated.
		actor := models.Actor{ID: r.PathValue("id"), IsProfessional: true}
		result, err := notifications.ListNotifications(r.Context(), actor, queryInt(q.Get("page")), queryInt(q.Get("limit")))
		respond(w, result, err)
	})
}

func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func respond(w http.ResponseWriter, result interface{}, err error) {
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(statusFor(err))
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error": err.Error(),
			"code":  string(commonerrors.CodeOf(err)),
		})
		return
	}
	_ = json.NewEncoder(w).Encode(result)
}

func statusFor(err error) int {
	switch {
	case commonerrors.IsValidation(err):
		return http.StatusBadRequest
	case commonerrors.IsNotFound(err):
		return http.StatusNotFound
	case commonerrors.IsConflict(err):
		return http.StatusConflict
	case commonerrors.IsAuthorization(err):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
