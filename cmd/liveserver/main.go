// Command liveserver serves a directory on the first free port of an address
// specification until interrupted, e.g.
//
//	liveserver -addr localhost:8081-8179 -root ./public
package main

import (
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/kochabonline/liveserver/app"
	"github.com/kochabonline/liveserver/config"
	"github.com/kochabonline/liveserver/liveserver"
	"github.com/kochabonline/liveserver/log"
)

func main() {
	var (
		configFile = flag.String("config", "", "configuration file, e.g. liveserver.yaml")
		addr       = flag.String("addr", "", "address specification, overrides the configuration")
		root       = flag.String("root", "", "directory served at /")
		logFile    = flag.Bool("logfile", false, "also write rotated log files as configured under log")
	)
	flag.Parse()

	opts := []config.Option{}
	if *configFile != "" {
		opts = append(opts,
			config.WithProvider(config.ProviderFile),
			config.WithPath(filepath.Dir(*configFile)),
			config.WithName(filepath.Base(*configFile)),
		)
	}
	cfg, err := liveserver.LoadConfig(opts...)
	if err != nil {
		log.Error().Err(err).Msg("load configuration")
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger := log.New(log.WithLevel(log.ParseLevel(cfg.Log.Level)), log.WithComponent("liveserver"))
	if *logFile {
		logger = log.NewMulti(cfg.Log, log.WithComponent("liveserver"))
	}
	log.SetGlobalLogger(logger)
	gin.SetMode(gin.ReleaseMode)

	var handler http.Handler = http.NotFoundHandler()
	if *root != "" {
		handler = http.FileServer(http.Dir(*root))
	}

	server := liveserver.NewFromConfig(cfg, handler, liveserver.WithLogger(logger))
	if err := app.New(app.WithServer(server), app.WithSignals(os.Interrupt, syscall.SIGTERM)).Start(); err != nil {
		logger.Error().Err(err).Msg("live server exited")
		os.Exit(1)
	}
}
