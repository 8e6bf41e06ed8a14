package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("POST "+RouteOAuth2Token, ChainMiddleware(s.Token(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteRealmOpenIDConfig, ChainMiddleware(s.RealmOpenIDConfig(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteRealmJWKS, ChainMiddleware(s.RealmJWKS(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteSamlLogin, ChainMiddleware(s.SamlLogin(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSamlACS, ChainMiddleware(s.SamlACS(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSamlMetadata, ChainMiddleware(s.SamlMetadata(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteOIDCLogin, ChainMiddleware(s.OIDCLogin(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteOIDCCallback, ChainMiddleware(s.OIDCCallback(), s.APIMiddleware()...))
}
