/*
Webapi is the executable for the student project showcase web server.

It connects to the external resources needed (SQLite database, assets store) and starts the
API web server, exposing the catalogue, engagement, collaboration, profile and admin routes.

Usage:

	webapi [flags]

Flags and configurations are handled automatically by the code in `load-configuration.go`.

Return values (exit codes):

	0
		The program ended successfully (no errors, stopped by signal)

	> 0
		The program ended due to an error

Note that this program will build the database schema on first launch, creating the SQLite
file when absent.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/conf"
	"github.com/hazemadel/vitrine/pkg/admin"
	"github.com/hazemadel/vitrine/pkg/auth"
	"github.com/hazemadel/vitrine/pkg/collaborations"
	"github.com/hazemadel/vitrine/pkg/engagement"
	"github.com/hazemadel/vitrine/pkg/projects"
	"github.com/hazemadel/vitrine/pkg/rest"
	"github.com/hazemadel/vitrine/pkg/storage/assets"
	"github.com/hazemadel/vitrine/pkg/storage/sqlite"
	"github.com/hazemadel/vitrine/pkg/users"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// main is the program entry point. The only purpose of this function is to call run() and set the exit code if there is
// any error
func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error: ", err)
		os.Exit(1)
	}
}

// run executes the program. The body of this function should perform the following steps:
// * reads the configuration
// * creates and configures the logger
// * connects to any external resources (database, assets store)
// * registers the routes handlers
// * starts the principal web server
// * waits for any termination event: SIGTERM signal (UNIX), non-recoverable server error, etc.
// * closes the principal web server
func run() error {
	// Load Configuration and defaults
	cfg, err := loadConfiguration()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	// Init logging
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.Infof("application initializing")

	// initialise the database before registering handlers for an immediate exit in case of issues
	storage, err := sqlite.New(logger, cfg.DB.Filename)
	if err != nil {
		logger.WithError(err).Error("error initialising storage")
		return fmt.Errorf("error while initialising storage: %w", err)
	}
	defer storage.Close()

	assetsStore, err := assets.New(logger, cfg.Assets.Path, cfg.Assets.PublicURL)
	if err != nil {
		logger.WithError(err).Error("error initialising the assets store")
		return fmt.Errorf("error while initialising the assets store: %w", err)
	}

	departments, err := loadDepartments(cfg.Departments.Path)
	if err != nil {
		logger.WithError(err).Error("error loading the departments catalogue")
		return err
	}

	// configure startup validation rules before any handler registration
	users.SetInstitutionDomain(cfg.Auth.InstitutionDomain)
	projects.SetDepartments(departments)

	// Start (main) API server
	logger.Info("initializing API server")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	e, err := rest.New(rest.Config{
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Error("error creating the API server instance")
		return fmt.Errorf("creating the API server instance: %w", err)
	}

	e.Use(rest.RequestLogger(logger))

	// setup handlers
	var authRepository = auth.NewRepository(storage.Connection)
	var usersRepository = users.NewRepository(storage.Connection)
	var projectsStore = projects.NewStore(storage.Connection, usersRepository)
	var engagementStore = engagement.NewStore(storage.Connection)
	var collaborationsStore = collaborations.NewStore(storage.Connection)
	var adminStore = admin.NewStore(storage.Connection)

	auth.RegisterHandlers(e, authRepository)
	users.RegisterHandlers(e, usersRepository, authRepository)
	projects.RegisterHandlers(e, projectsStore, assetsStore, authRepository)
	engagement.RegisterHandlers(e, engagementStore, authRepository)
	collaborations.RegisterHandlers(e, collaborationsStore, authRepository)
	admin.RegisterHandlers(e, adminStore, projectsStore, authRepository, cfg.Auth.AdminEmail)

	// uploaded assets are served back as public static files
	e.ServeFiles("/static/*filepath", http.Dir(cfg.Assets.Path))

	// Apply CORS policy
	handler := applyCORSHandler(e.Handler())

	// create the API server
	server := http.Server{
		Addr:              cfg.Web.APIHost,
		Handler:           handler,
		ReadTimeout:       cfg.Web.ReadTimeout,
		ReadHeaderTimeout: cfg.Web.ReadTimeout,
		WriteTimeout:      cfg.Web.WriteTimeout,
	}

	// Start the service listening for requests in a separate goroutine
	go func() {
		logger.Infof("API listening on %s", server.Addr)
		serverErrors <- server.ListenAndServe()
		logger.Infof("stopping API server")
	}()

	// Waiting for shutdown signal or POSIX signals
	select {
	case err := <-serverErrors:
		// Non-recoverable server error
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("signal %v received, start shutdown", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and load shed.
		err = server.Shutdown(ctx)
		if err != nil {
			logger.WithError(err).Warning("error during graceful shutdown of HTTP server")
			err = server.Close()
		}

		if err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
