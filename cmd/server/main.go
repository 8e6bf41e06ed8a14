package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/scc-digitalhub/AAC-sub005/authn"
	"github.com/scc-digitalhub/AAC-sub005/clients"
	"github.com/scc-digitalhub/AAC-sub005/flow"
	"github.com/scc-digitalhub/AAC-sub005/internal/config"
	"github.com/scc-digitalhub/AAC-sub005/providers"
	"github.com/scc-digitalhub/AAC-sub005/realms"
	"github.com/scc-digitalhub/AAC-sub005/server"
	"github.com/scc-digitalhub/AAC-sub005/spid"
	"github.com/scc-digitalhub/AAC-sub005/token"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logger := newLogger(c)
	displayAppname(c.GetAppName())

	spid.Initialize()

	srv, err := buildServer(c, logger)
	if err != nil {
		return fmt.Errorf("buildServer: %w", err)
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer, logger)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config, logger zerolog.Logger) (*server.Server, error) {
	clientRepo := clients.NewInMemoryRepo()
	realmRepo := realms.NewInMemoryRepo()
	flowStore := flow.NewInMemoryStore()
	tokenStore := token.NewInMemoryStore()
	registrationRepo := providers.NewInMemoryRepo()
	requestStore := spid.NewInMemoryRequestStore()

	if err := bootstrapDefaultRealm(c, realmRepo); err != nil {
		return nil, err
	}

	keyPair, err := token.GenerateRSAKeyPair("default", 2048)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	issuer := token.NewIssuer(realmRepo, tokenStore, token.NewKeyPairSigner(keyPair),
		token.WithIssuerURL(c.GetBaseURL()),
		token.WithAudience(c.GetBaseURL()),
		token.WithTokenExpiry(c.GetAccessTokenExpiry(), c.GetRefreshTokenExpiry()),
	)

	claimsValidator := authn.NewClaimsValidator(c.GetAssertionAudiences(),
		authn.WithClockSkew(c.GetClockSkew()),
		authn.WithMaxValidity(c.GetMaxAssertionValidity()),
	)
	replayCache := authn.NewReplayCache(c.GetReplayCacheSize(), c.GetReplayCacheTTL())

	engine := authn.NewEngine(
		authn.NewSecretValidator(clientRepo),
		authn.NewPKCEValidator(clientRepo, flowStore),
		authn.NewJwtAssertionValidator(clientRepo, claimsValidator, replayCache),
		authn.NewRefreshRotationValidator(clientRepo, tokenStore),
		authn.NewSamlResponseValidator(registrationRepo, requestStore,
			spid.NewResponseValidator(), spid.NewAssertionValidator()),
		logger,
	)

	deps := server.Deps{
		Engine:        engine,
		Issuer:        issuer,
		Metadata:      providers.NewMetadataResolver(registrationRepo),
		OIDC:          providers.NewOIDCConnector(providers.NewInMemoryOIDCRepo()),
		Clients:       clientRepo,
		Realms:        realmRepo,
		Flow:          flowStore,
		Registrations: registrationRepo,
		SamlRequests:  requestStore,
	}
	return server.New(c, deps, logger), nil
}

func bootstrapDefaultRealm(c config.Config, realmRepo realms.Repo) error {
	realmID := c.GetDefaultRealm()
	realm, err := realms.New(realmID, realmID, realms.RealmConfig{
		Issuer:   c.GetBaseURL() + "/realms/" + realmID,
		Audience: c.GetBaseURL(),
	})
	if err != nil {
		return fmt.Errorf("bootstrap realm: %w", err)
	}

	keyPair, err := token.GenerateRSAKeyPair(realmID+"-signing", 2048)
	if err != nil {
		return fmt.Errorf("generate realm key: %w", err)
	}
	privatePEM, err := keyPair.ExportPrivateKeyPEM()
	if err != nil {
		return fmt.Errorf("export realm key: %w", err)
	}
	publicPEM, err := keyPair.ExportPublicKeyPEM()
	if err != nil {
		return fmt.Errorf("export realm key: %w", err)
	}
	realm.Keys = realms.RealmKeys{
		KeyID:         keyPair.KeyID,
		PrivateKeyPEM: privatePEM,
		PublicKeyPEM:  publicPEM,
	}

	return realmRepo.Upsert(realm)
}

func newLogger(c config.Config) zerolog.Logger {
	if c.GetEnv() == "DEV" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func listenAndServe(server *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
