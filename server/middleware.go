package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/weegigs/wee-counter-go/simulator"
)

var errSimulated = errors.New("simulated server error")

func withLogging(h http.Handler) http.Handler {
	logFn := func(rw http.ResponseWriter, r *http.Request) {
		start := time.Now()

		uri := r.RequestURI
		method := r.Method
		h.ServeHTTP(rw, r)

		log.WithFields(log.Fields{
			"uri":      uri,
			"method":   method,
			"duration": time.Since(start),
		}).Info()
	}
	return http.HandlerFunc(logFn)
}

// withFaults delays requests and fails a share of them with a 500.
func withFaults(faults simulator.Faults) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := faults.Inject(r.Context(), errSimulated)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case r.Context().Err() != nil:
				// client went away
			default:
				detail(w, r, http.StatusInternalServerError, err.Error())
			}
		})
	}
}

func withCORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	for _, origin := range origins {
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowed[origin] || allowed["*"]) {
				header := w.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Allow-Methods", strings.Join([]string{
					http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
				}, ", "))
				header.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization, X-Requested-With")
				header.Add("Vary", "Origin")

				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
