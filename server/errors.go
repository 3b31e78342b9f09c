package server

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"

	"github.com/weegigs/wee-counter-go/counters"
)

type problem struct {
	Detail string `json:"detail"`
}

func detail(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, problem{Detail: message})
}

// fail maps service errors onto responses. Anything other than a missing counter
// is logged and reported as an internal error.
func (server *countServer) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var missing *counters.NotFoundError
	if errors.As(err, &missing) {
		detail(w, r, http.StatusNotFound, missing.Error())
		return
	}

	server.log.Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	detail(w, r, http.StatusInternalServerError, msg)
}
