package httpapi

import "net/http"

func (handler *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	result, err := handler.admin.Overview(ctx)
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}

func (handler *Handler) handleActiveTrips(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	result, err := handler.admin.ActiveTrips(ctx, query.Get("page"), query.Get("page_size"))
	if err != nil {
		handler.serviceError(ctx, w, err)
		return
	}

	handler.jsonResponse(ctx, w, http.StatusOK, result)
}
