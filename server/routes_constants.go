package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// OAuth2 Routes
	RouteOAuth2Token = "/oauth2/token"

	// Realm discovery routes
	RouteRealmOpenIDConfig = "/realms/{realmId}/.well-known/openid-configuration"
	RouteRealmJWKS         = "/realms/{realmId}/.well-known/jwks.json"

	// SPID / SAML Routes
	RouteSamlLogin    = "/saml/login/{registrationId}"
	RouteSamlACS      = "/saml/acs/{registrationId}"
	RouteSamlMetadata = "/saml/metadata/{registrationId}"

	// Upstream OIDC federation routes
	RouteOIDCLogin    = "/oidc/login/{registrationId}"
	RouteOIDCCallback = "/oidc/callback/{registrationId}"
)
