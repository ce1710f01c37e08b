package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
)

type ServeCommand struct {
	HandlerFlags `embed:""`
	ListenAddr   string `help:"The address to listen on." env:"LISTEN_ADDR" default:"localhost:9020"`
	TLSCertFile  string `help:"The TLS certificate file." env:"TLS_CERT_FILE" default:""`
	TLSKeyFile   string `help:"The TLS key file." env:"TLS_KEY_FILE" default:""`
	LogLevel     string `help:"The log level to use." env:"LOG_LEVEL" default:"info"`
}

func (c ServeCommand) Run(ctx context.Context) (err error) {
	log := getLogger(c.LogLevel)

	h, err := c.newHandler(ctx, log)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/api/chat", h)

	withCORS := cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type"},
		OptionsPassthrough:   true,
		OptionsSuccessStatus: http.StatusOK,
	}).Handler(mux)

	s := &http.Server{
		Addr:              c.ListenAddr,
		Handler:           withCORS,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("Listening", slog.String("addr", c.ListenAddr))
		if c.TLSCertFile != "" && c.TLSKeyFile != "" {
			log.Info("Enabling TLS mode")
			cert, err := tls.LoadX509KeyPair(c.TLSCertFile, c.TLSKeyFile)
			if err != nil {
				errs <- fmt.Errorf("failed to load cert: %w", err)
				return
			}
			s.TLSConfig = &tls.Config{
				MinVersion:   tls.VersionTLS12,
				Certificates: []tls.Certificate{cert},
			}
			errs <- s.ListenAndServeTLS("", "")
			return
		}
		errs <- s.ListenAndServe()
	}()

	select {
	case err = <-errs:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err = s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
