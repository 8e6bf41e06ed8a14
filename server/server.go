package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/scc-digitalhub/AAC-sub005/authn"
	"github.com/scc-digitalhub/AAC-sub005/clients"
	"github.com/scc-digitalhub/AAC-sub005/flow"
	"github.com/scc-digitalhub/AAC-sub005/internal/config"
	"github.com/scc-digitalhub/AAC-sub005/providers"
	"github.com/scc-digitalhub/AAC-sub005/realms"
	"github.com/scc-digitalhub/AAC-sub005/spid"
	"github.com/scc-digitalhub/AAC-sub005/token"
)

// Server wires the authentication engine, token issuer, and SPID endpoints
// onto an http.ServeMux.
type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config
	logger zerolog.Logger

	engine   *authn.Engine
	issuer   *token.Issuer
	metadata *providers.MetadataResolver
	oidc     *providers.OIDCConnector

	clients       clients.Repo
	realms        realms.Repo
	flow          flow.Store
	registrations providers.Repo
	samlRequests  spid.RequestStore
}

type Deps struct {
	Engine        *authn.Engine
	Issuer        *token.Issuer
	Metadata      *providers.MetadataResolver
	OIDC          *providers.OIDCConnector
	Clients       clients.Repo
	Realms        realms.Repo
	Flow          flow.Store
	Registrations providers.Repo
	SamlRequests  spid.RequestStore
}

func New(config config.Config, deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		mux:      http.NewServeMux(),
		config:   config,
		logger:   logger,
		engine:   deps.Engine,
		issuer:   deps.Issuer,
		metadata: deps.Metadata,
		oidc:     deps.OIDC,
		clients:  deps.Clients,
		realms:   deps.Realms,
		flow:     deps.Flow,

		registrations: deps.Registrations,
		samlRequests:  deps.SamlRequests,
	}
	s.env = config.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		s.logger.Info().Str("route", route).Msg("registered")
	}
}
