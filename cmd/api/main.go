package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tibs245/oria-auth/internal/auth"
	"github.com/tibs245/oria-auth/internal/httpapi"
	"github.com/tibs245/oria-auth/internal/obs"
	"github.com/tibs245/oria-auth/internal/store/pg"
)

var (
	version = "0.3.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	keys, err := loadKeys()
	if err != nil {
		log.Fatalf("load keys: %v", err)
	}

	var (
		credentials auth.CredentialStore
		tokens      auth.TokenStore
		probe       httpapi.ReadyProbe
		pgStore     *pg.Store
	)
	if dsn := os.Getenv("ORIA_PG_DSN"); dsn != "" {
		pgStore, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		credentials = pgStore.Credentials()
		tokens = pgStore.Tokens()
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		// No DSN: single-node dev mode on in-memory stores.
		log.Println("ORIA_PG_DSN not set, using in-memory stores")
		credentials = auth.NewMemoryCredentialStore()
		tokens = auth.NewMemoryTokenStore()
	}

	service := auth.NewService(credentials, tokens, auth.NewCodec(keys))
	api := httpapi.New(service, probe, version)

	addr := os.Getenv("ORIA_HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting oria-auth %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}

// loadKeys reads the Ed25519 signing pair from the files named by
// ORIA_AUTH_PRIVATE_KEY_FILE and ORIA_AUTH_PUBLIC_KEY_FILE. With neither
// set a fresh pair is generated, which is only useful for development:
// every restart invalidates all outstanding tokens.
func loadKeys() (*auth.KeyPair, error) {
	privPath := os.Getenv("ORIA_AUTH_PRIVATE_KEY_FILE")
	pubPath := os.Getenv("ORIA_AUTH_PUBLIC_KEY_FILE")
	if privPath == "" && pubPath == "" {
		log.Println("no key files configured, generating an ephemeral pair")
		return auth.NewKeyPair()
	}
	priv, err := os.ReadFile(privPath)
	if err != nil {
		return nil, err
	}
	pub, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, err
	}
	return auth.LoadKeyPair(priv, pub)
}
