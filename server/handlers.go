package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/weegigs/wee-counter-go/counters"
)

const incremented = "count incremented"

type countResponse struct {
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

type createRequest struct {
	Description  *string `json:"description"`
	InitialValue int     `json:"initial_value"`
}

func (c *createRequest) Bind(*http.Request) error {
	return nil
}

type updateRequest struct {
	Value       *int    `json:"count_number"`
	Description *string `json:"description"`
}

func (u *updateRequest) Bind(*http.Request) error {
	if u.Value == nil && u.Description == nil {
		return errors.New("nothing to update")
	}

	return nil
}

func (server *countServer) welcome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]any{
			"message": "wee counter api",
			"endpoints": map[string]string{
				"GET /api/count":                "read the current count",
				"POST /api/count/increment":     "increment the current count",
				"POST /counters":                "create a counter",
				"GET /counters":                 "list counters",
				"GET /counters/{id}":            "read a counter",
				"PUT /counters/{id}":            "update a counter",
				"DELETE /counters/{id}":         "delete a counter",
				"POST /counters/{id}/increment": "increment a counter",
			},
		})
	}
}

func (server *countServer) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "healthy"})
	}
}

func (server *countServer) getCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counter, err := server.service.Current(r.Context())
		if err != nil {
			server.fail(w, r, err, "failed to load count")
			return
		}

		render.JSON(w, r, countResponse{Count: counter.Value})
	}
}

func (server *countServer) incrementCount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counter, err := server.service.IncrementCurrent(r.Context())
		if err != nil {
			server.fail(w, r, err, "failed to increment count")
			return
		}

		render.JSON(w, r, countResponse{Count: counter.Value, Message: incremented})
	}
}

func (server *countServer) createCounter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request createRequest
		if err := render.Bind(r, &request); err != nil {
			detail(w, r, http.StatusBadRequest, "invalid request body")
			return
		}

		counter, err := server.service.Create(r.Context(), request.InitialValue, request.Description)
		if err != nil {
			server.fail(w, r, err, "failed to create counter")
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, counter)
	}
}

func (server *countServer) listCounters() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := server.service.List(r.Context())
		if err != nil {
			server.fail(w, r, err, "failed to list counters")
			return
		}

		render.JSON(w, r, list)
	}
}

func (server *countServer) getCounter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		counter, err := server.service.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			server.fail(w, r, err, "failed to load counter")
			return
		}

		render.JSON(w, r, counter)
	}
}

func (server *countServer) updateCounter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var request updateRequest
		if err := render.Bind(r, &request); err != nil {
			detail(w, r, http.StatusBadRequest, "invalid request body")
			return
		}

		counter, err := server.service.Update(r.Context(), chi.URLParam(r, "id"), counters.Update{
			Value:       request.Value,
			Description: request.Description,
		})
		if err != nil {
			server.fail(w, r, err, "failed to update counter")
			return
		}

		render.JSON(w, r, counter)
	}
}

func (server *countServer) deleteCounter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := server.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			server.fail(w, r, err, "failed to delete counter")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func (server *countServer) incrementCounter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount := 1
		if by := r.URL.Query().Get("increment_by"); by != "" {
			parsed, err := strconv.Atoi(by)
			if err != nil {
				detail(w, r, http.StatusBadRequest, "increment_by must be an integer")
				return
			}
			amount = parsed
		}

		counter, err := server.service.Increment(r.Context(), chi.URLParam(r, "id"), amount)
		if err != nil {
			server.fail(w, r, err, "failed to increment counter")
			return
		}

		render.JSON(w, r, counter)
	}
}
