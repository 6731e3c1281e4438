package main

import (
	"os"
	"os/signal"
	"path"
	"strconv"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"

	"github.com/socktun/socktun/api"
	"github.com/socktun/socktun/identity"
	"github.com/socktun/socktun/orchestrator"
	"github.com/socktun/socktun/settings"
	"github.com/socktun/socktun/tunnel"
)

const version = "local-build"

func main() {
	if os.Getenv("SOCKTUN_JSON_LOG") == "true" {
		log.SetFormatter(&log.JSONFormatter{})
	}
	if os.Getenv("SOCKTUN_DEBUG") == "true" {
		log.SetLevel(log.DebugLevel)
	}
	log.WithField("version", version).Info("starting socktun control plane")

	stateDir := stateDirectory()
	if err := os.MkdirAll(stateDir, 0o700); err != nil {
		log.WithError(err).Fatal("could not create state directory")
	}

	store, err := settings.Open(path.Join(stateDir, "socktun.db"))
	if err != nil {
		log.WithError(err).Fatal("could not open settings database")
	}
	defer store.Close()

	applyEnvOverrides(store)
	serverSettings, err := store.Server()
	if err != nil {
		log.WithError(err).Fatal("could not load server settings")
	}

	idStore, err := identity.NewStore(path.Join(stateDir, "identity"))
	if err != nil {
		log.WithError(err).Fatal("could not open identity store")
	}
	idm := identity.NewManager(idStore)

	controller := tunnel.NewController(tunnel.NewPlatformBridge(newRelayDriver()))
	orch := orchestrator.New(controller, store)

	server := api.NewServer(orch, controller, idm, log.StandardLogger())
	if err := server.Start(api.Config{
		Port:         serverSettings.Port,
		HTTPSEnabled: serverSettings.HTTPSEnabled,
		AuthEnabled:  serverSettings.AuthEnabled,
		Token:        serverSettings.Token,
	}); err != nil {
		log.WithError(err).Fatal("could not start control API")
	}

	if serverSettings.AutoStart {
		go autoStart(orch, store)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Info("shutting down")
	if err := server.Stop(); err != nil {
		log.WithError(err).Warn("control API did not stop cleanly")
	}
	orch.Disconnect()
}

// autoStart redials the last successfully connected target, if any.
func autoStart(orch *orchestrator.Orchestrator, store *settings.Store) {
	record, found, err := store.RememberedTarget()
	if err != nil {
		log.WithError(err).Warn("auto-start: could not load remembered target")
		return
	}
	if !found {
		log.Info("auto-start: no remembered target, staying disconnected")
		return
	}
	log.WithField("host", record.Host).WithField("port", record.Port).Info("auto-start: redialing")
	result := orch.Connect(tunnel.Configuration{ProxyHost: record.Host, ProxyPort: record.Port})
	if !result.Success {
		log.WithField("message", result.Message).Warn("auto-start: connect failed")
	}
}

func stateDirectory() string {
	if dir := os.Getenv("SOCKTUN_STATE_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".socktun"
	}
	return path.Join(home, ".socktun")
}

// applyEnvOverrides lets the environment reconfigure the persisted
// settings at boot. Ordering matters: HTTPS before auth, so enabling both
// in one go satisfies the invariant.
func applyEnvOverrides(store *settings.Store) {
	if v := os.Getenv("SOCKTUN_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			log.WithField("value", v).Warn("ignoring non-numeric SOCKTUN_PORT")
		} else {
			current, err := store.Server()
			if err == nil {
				current.Port = port
				err = store.SaveServer(current)
			}
			if err != nil {
				log.WithError(err).Warn("could not apply SOCKTUN_PORT")
			}
		}
	}
	if v := os.Getenv("SOCKTUN_HTTPS"); v != "" {
		if _, err := store.SetHTTPSEnabled(v == "true"); err != nil {
			log.WithError(err).Warn("could not apply SOCKTUN_HTTPS")
		}
	}
	if v := os.Getenv("SOCKTUN_AUTH"); v != "" {
		if updated, err := store.SetAuthEnabled(v == "true"); err != nil {
			log.WithError(err).Warn("could not apply SOCKTUN_AUTH")
		} else if updated.AuthEnabled {
			log.WithField("token", updated.Token).Info("bearer-token auth enabled")
		}
	}
	if v := os.Getenv("SOCKTUN_AUTOSTART"); v != "" {
		current, err := store.Server()
		if err == nil {
			current.AutoStart = v == "true"
			err = store.SaveServer(current)
		}
		if err != nil {
			log.WithError(err).Warn("could not apply SOCKTUN_AUTOSTART")
		}
	}
}
