// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/entitycache/background"
	"github.com/bitmark-inc/entitycache/cache"
	"github.com/bitmark-inc/entitycache/configuration"
	"github.com/bitmark-inc/entitycache/confirmer"
	"github.com/bitmark-inc/entitycache/messagebus"
	"github.com/bitmark-inc/entitycache/storage"
	"github.com/bitmark-inc/entitycache/store"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// limit on draining confirmations at shutdown
const (
	shutdownTimeout = 5 * time.Second
)

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	if len(options["help"]) > 0 || len(arguments) > 0 {
		exitwithstatus.Message("usage: %s [--help] [--verbose] [--quiet] --config-file=FILE", program)
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: only one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	// read options and parse the configuration file
	configurationFile := options["config-file"][0]
	masterConfiguration, err := configuration.GetConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// start logging
	if err = logger.Initialise(loggerConfiguration(masterConfiguration.Logging, len(options["verbose"]) > 0)); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// create a logger channel for the main program
	log := logger.New("main")
	defer log.Info("shutting down…")
	log.Info("starting…")
	log.Infof("version: %s", version)
	log.Debugf("masterConfiguration: %v", masterConfiguration)

	cacheSettings, err := masterConfiguration.Cache.Settings()
	if nil != err {
		exitwithstatus.Message("%s: cache configuration error: %s", program, err)
	}
	confirmerSettings, err := masterConfiguration.Confirmer.Settings()
	if nil != err {
		exitwithstatus.Message("%s: confirmer configuration error: %s", program, err)
	}
	latency, writeInterval, err := masterConfiguration.Simulation.Durations()
	if nil != err {
		exitwithstatus.Message("%s: simulation configuration error: %s", program, err)
	}

	// ------------------
	// start of real main
	// ------------------

	database, err := storage.Open(masterConfiguration.Database.Name, storage.ReadWrite)
	if nil != err {
		log.Criticalf("storage open error: %s", err)
		exitwithstatus.Message("%s: storage: %q  open error: %s", program, masterConfiguration.Database.Name, err)
	}
	defer database.Close()

	bus := messagebus.New(masterConfiguration.QueueSize)

	pipeline, err := confirmer.New(confirmerSettings)
	if nil != err {
		log.Criticalf("confirmer error: %s", err)
		exitwithstatus.Message("%s: confirmer error: %s", program, err)
	}
	pipeline.SetBus(bus)

	entities, err := cache.New(store.New(), pipeline, cacheSettings)
	if nil != err {
		log.Criticalf("cache error: %s", err)
		exitwithstatus.Message("%s: cache error: %s", program, err)
	}
	entities.SetPersister(database)
	entities.SetBus(bus)

	for _, schema := range []cache.Schema{
		{Kind: tracksKind, RequiredFields: []string{"title", "owner_id"}},
		{Kind: usersKind, RequiredFields: []string{"handle"}},
		{Kind: collectionsKind},
	} {
		if err := entities.Register(schema); nil != err {
			exitwithstatus.Message("%s: register schema: %q  error: %s", program, schema.Kind, err)
		}
	}

	// entries persisted by a previous run
	kinds, err := database.SavedKinds()
	if nil != err {
		log.Errorf("saved kinds error: %s", err)
	}
	for _, kind := range kinds {
		if _, err := entities.Restore(kind); nil != err {
			log.Errorf("restore kind: %s  error: %s", kind, err)
		}
	}

	if err := entities.Start(); nil != err {
		log.Criticalf("cache start error: %s", err)
		exitwithstatus.Message("%s: cache start error: %s", program, err)
	}

	simulation := masterConfiguration.Simulation
	src := newSource(logger.New("source"), simulation.Entities, latency, simulation.FailureRate, time.Now().UnixNano())

	processes := background.Processes{
		newReporter(bus, entities),
		&background.Ticker{
			Interval: writeInterval,
			Tick:     newWriter(entities, pipeline, src, simulation.Entities).Tick,
		},
	}
	for i := 0; i < simulation.Views; i += 1 {
		processes = append(processes, newView(i, entities, src, simulation.Entities))
	}

	watcher, err := newFileWatcher(configurationFile, logger.New(fileWatcherLoggerPrefix), reloader(configurationFile, entities, log))
	if nil != err {
		log.Warnf("configuration file watcher error: %s", err)
	} else {
		processes = append(processes, watcher)
	}

	running := background.Start(processes, nil)

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	running.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := pipeline.Close(ctx); nil != err {
		log.Warnf("confirmer close: %s  pending keys: %v", err, pipeline.Keys())
	}

	entities.Stop()
}

func loggerConfiguration(l configuration.LoggerType, verbose bool) logger.Configuration {
	levels := make(map[string]string, len(l.Levels))
	for k, v := range l.Levels {
		levels[k] = v
	}
	if verbose {
		levels[logger.DefaultTag] = "debug"
	}
	return logger.Configuration{
		Directory: l.Directory,
		File:      l.File,
		Size:      l.Size,
		Count:     l.Count,
		Console:   l.Console,
		Levels:    levels,
	}
}

// apply ttl and prune minimum changes from the configuration file
func reloader(configurationFile string, entities *cache.Cache, log *logger.L) func() {
	return func() {
		c, err := configuration.GetConfiguration(configurationFile)
		if nil != err {
			log.Errorf("reload configuration error: %s", err)
			return
		}
		settings, err := c.Cache.Settings()
		if nil != err {
			log.Errorf("reload cache settings error: %s", err)
			return
		}

		ttl := settings.TTL
		if 0 == ttl {
			ttl = cache.DefaultTTL
		}
		if err := entities.Reconfigure(ttl, settings.PruneMin); nil != err {
			log.Errorf("reconfigure error: %s", err)
			return
		}
		log.Infof("reconfigured  ttl: %s  prune minimum: %d", ttl, settings.PruneMin)
	}
}
