// Package router assembles the HTTP surface of the telemetry service.
package router

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/demandsignal/telemetry/analytics"
	"github.com/demandsignal/telemetry/endpoints"
	"github.com/demandsignal/telemetry/metrics"
)

// New builds the router for the intake surface. Responses are gzipped when
// the client accepts it; CORS is open but credential-less.
func New(module analytics.Module, me *metrics.Metrics) http.Handler {
	r := httprouter.New()
	r.POST("/telemetry/event", endpoints.NewEventEndpoint(module, me))
	r.GET("/status", endpoints.NewStatusEndpoint())

	return supportCORS(gziphandler.GzipHandler(r))
}

func supportCORS(handler http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowCredentials: false,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   []string{"Origin", "Content-Type"},
	})
	return c.Handler(handler)
}
