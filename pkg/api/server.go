package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/relayops/channelstore/pkg/channels"
	"github.com/relayops/channelstore/pkg/httputil"
	"github.com/relayops/channelstore/pkg/observability"
	"github.com/relayops/channelstore/pkg/orgs"
)

// subjectHeader carries the caller identity forwarded by the gateway.
const subjectHeader = "X-Subject"

// Server is the REST surface over the org and channel lifecycle services.
type Server struct {
	orgs     *orgs.Service
	channels *channels.Service
	router   *mux.Router
	logger   *observability.Logger
}

// NewServer creates a new API server
func NewServer(orgSvc *orgs.Service, channelSvc *channels.Service, logger *observability.Logger) *Server {
	s := &Server{
		orgs:     orgSvc,
		channels: channelSvc,
		router:   mux.NewRouter(),
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Organization routes
	api.HandleFunc("/orgs", s.createOrg).Methods("POST")
	api.HandleFunc("/orgs/{orgId}", s.getOrg).Methods("GET")

	// Channel routes
	api.HandleFunc("/orgs/{orgId}/channels", s.createChannel).Methods("POST")
	api.HandleFunc("/orgs/{orgId}/channels", s.listChannels).Methods("GET")
	api.HandleFunc("/orgs/{orgId}/channels/byName/{name}", s.getChannelByName).Methods("GET")
	api.HandleFunc("/orgs/{orgId}/channels/{uuid}", s.getChannel).Methods("GET")
	api.HandleFunc("/orgs/{orgId}/channels/{uuid}", s.editChannel).Methods("PUT")
	api.HandleFunc("/orgs/{orgId}/channels/{uuid}", s.removeChannel).Methods("DELETE")

	// Version routes
	api.HandleFunc("/orgs/{orgId}/channels/{uuid}/versions", s.createVersion).Methods("POST")
	api.HandleFunc("/orgs/{orgId}/channels/{channel}/versions/{version}", s.getVersion).Methods("GET")
	api.HandleFunc("/orgs/{orgId}/versions/{uuid}", s.removeVersion).Methods("DELETE")
}

// Handler returns the router wrapped in the standard middleware chain.
func (s *Server) Handler(maxBodyBytes int64) http.Handler {
	return httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.ContextLoggerMiddleware(s.logger),
		httputil.LoggingMiddleware(),
		httputil.RecoveryMiddleware(),
		httputil.MaxBytesMiddleware(maxBodyBytes),
	)(s.router)
}

// ServeHTTP implements http.Handler, bypassing the middleware chain. Used
// in tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// subject extracts the caller identity forwarded by the gateway.
func subject(r *http.Request) string {
	if sub := r.Header.Get(subjectHeader); sub != "" {
		return sub
	}
	return "anonymous"
}

// writeDomainError maps service error categories onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch channels.ErrorCategory(err) {
	case "validation":
		httputil.WriteBadRequest(w, err.Error())
	case "not_found":
		httputil.WriteNotFound(w, err.Error())
	case "auth":
		httputil.WriteForbidden(w, err.Error())
	default:
		observability.FromContext(r.Context()).WithError(err).Error("request failed")
		// Opaque to the caller apart from the correlation id.
		if id := observability.GetRequestID(r.Context()); id != "" {
			httputil.WriteErrorMessage(w, http.StatusInternalServerError, "internal server error (request "+id+")")
			return
		}
		httputil.WriteInternalError(w)
	}
}
