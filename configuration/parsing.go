// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/bitmark-inc/entitycache/cache"
	"github.com/bitmark-inc/entitycache/confirmer"
	"github.com/bitmark-inc/entitycache/fault"
	"github.com/bitmark-inc/entitycache/messagebus"
)

// basic defaults (directories and files are relative to the "DataDirectory" from Configuration file)
const (
	defaultDataDirectory = "." // same directory as the configuration file

	defaultLevelDBDirectory = "data"
	defaultDatabase         = "entitycache.leveldb"

	defaultLogDirectory = "log"
	defaultLogFile      = "entitycache.log"
	defaultLogCount     = 10          //  number of log files retained
	defaultLogSize      = 1024 * 1024 // rotate when <logfile> exceeds this size

	defaultViews         = 4
	defaultEntities      = 20
	defaultLatency       = "50ms"
	defaultWriteInterval = "500ms"
)

// LoglevelMap - to hold log levels
type LoglevelMap map[string]string

// path expanded or calculated defaults
var (
	defaultLogLevels = LoglevelMap{
		"main":            "info",
		logger.DefaultTag: "critical",
	}
)

// DatabaseType - where the persisted entities are kept
type DatabaseType struct {
	Directory string `gluamapper:"directory"`
	Name      string `gluamapper:"name"`
}

// LoggerType - logger settings
type LoggerType struct {
	Directory string      `gluamapper:"directory"`
	File      string      `gluamapper:"file"`
	Size      int         `gluamapper:"size"`
	Count     int         `gluamapper:"count"`
	Console   bool        `gluamapper:"console"`
	Levels    LoglevelMap `gluamapper:"levels"`
}

// CacheType - entity cache settings
type CacheType struct {
	TTL           string  `gluamapper:"ttl"`
	PruneMin      int     `gluamapper:"prune_min"`
	StatusExpiry  string  `gluamapper:"status_expiry"`
	SweepInterval string  `gluamapper:"sweep_interval"`
	FetchRate     float64 `gluamapper:"fetch_rate"`
	FetchBurst    int     `gluamapper:"fetch_burst"`
}

// ConfirmerType - confirmation pipeline settings
type ConfirmerType struct {
	DefaultTimeout string `gluamapper:"default_timeout"`
}

// SimulationType - load generated by the simulation program
type SimulationType struct {
	Views         int     `gluamapper:"views"`
	Entities      int     `gluamapper:"entities"`
	Latency       string  `gluamapper:"latency"`
	FailureRate   float64 `gluamapper:"failure_rate"`
	WriteInterval string  `gluamapper:"write_interval"`
}

// Configuration - the whole configuration file
type Configuration struct {
	DataDirectory string         `gluamapper:"data_directory"`
	QueueSize     int            `gluamapper:"queue_size"`
	Database      DatabaseType   `gluamapper:"database"`
	Logging       LoggerType     `gluamapper:"logging"`
	Cache         CacheType      `gluamapper:"cache"`
	Confirmer     ConfirmerType  `gluamapper:"confirmer"`
	Simulation    SimulationType `gluamapper:"simulation"`
}

// GetConfiguration - will read decode and verify the configuration
func GetConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// absolute path to the main directory
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{

		DataDirectory: defaultDataDirectory,
		QueueSize:     messagebus.DefaultQueueSize,

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      defaultDatabase,
		},

		Logging: LoggerType{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    make(LoglevelMap, len(defaultLogLevels)),
		},

		Cache: CacheType{
			TTL:           cache.DefaultTTL.String(),
			PruneMin:      cache.DefaultPruneMin,
			StatusExpiry:  cache.DefaultStatusExpiry.String(),
			SweepInterval: cache.DefaultSweepInterval.String(),
		},

		Simulation: SimulationType{
			Views:         defaultViews,
			Entities:      defaultEntities,
			Latency:       defaultLatency,
			WriteInterval: defaultWriteInterval,
		},
	}

	for k, v := range defaultLogLevels {
		options.Logging.Levels[k] = v
	}

	if err := ParseConfigurationFile(configurationFileName, options); err != nil {
		return nil, err
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory // same directory as the configuration file
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist - i.e. must be created prior to running
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// fail if any of these are not simple file names i.e. must not contain path separator
	// then add the correct directory prefix, file item is first and corresponding directory is second
	mustNotBePaths := [][2]*string{
		{&options.Database.Name, &options.Database.Directory},
		{&options.Logging.File, &options.Logging.Directory},
	}
	for _, f := range mustNotBePaths {
		*f[1] = ensureAbsolute(options.DataDirectory, *f[1])
		switch filepath.Dir(*f[0]) {
		case "", ".":
			*f[0] = ensureAbsolute(*f[1], *f[0])
		default:
			return nil, fmt.Errorf("files: %q is not plain name", *f[0])
		}
	}

	// create directories if they do not already exist
	for _, d := range []string{options.Database.Directory, options.Logging.Directory} {
		if err := os.MkdirAll(d, 0700); nil != err {
			return nil, err
		}
	}

	// check all durations early
	if _, err := options.Cache.Settings(); nil != err {
		return nil, err
	}
	if _, err := options.Confirmer.Settings(); nil != err {
		return nil, err
	}

	// done
	return options, nil
}

// Settings - convert to the cache configuration
func (c CacheType) Settings() (cache.Configuration, error) {
	ttl, err := parseDuration(c.TTL)
	if nil != err {
		return cache.Configuration{}, err
	}
	statusExpiry, err := parseDuration(c.StatusExpiry)
	if nil != err {
		return cache.Configuration{}, err
	}
	sweepInterval, err := parseDuration(c.SweepInterval)
	if nil != err {
		return cache.Configuration{}, err
	}
	if c.PruneMin < 0 || c.FetchRate < 0 || c.FetchBurst < 0 {
		return cache.Configuration{}, fault.ErrInvalidConfiguration
	}

	return cache.Configuration{
		TTL:           ttl,
		PruneMin:      c.PruneMin,
		StatusExpiry:  statusExpiry,
		SweepInterval: sweepInterval,
		FetchRate:     c.FetchRate,
		FetchBurst:    c.FetchBurst,
	}, nil
}

// Settings - convert to the confirmer configuration
func (c ConfirmerType) Settings() (confirmer.Configuration, error) {
	timeout, err := parseDuration(c.DefaultTimeout)
	if nil != err {
		return confirmer.Configuration{}, err
	}
	return confirmer.Configuration{
		DefaultTimeout: timeout,
	}, nil
}

// Durations - latency and write interval of the simulation
func (s SimulationType) Durations() (time.Duration, time.Duration, error) {
	latency, err := parseDuration(s.Latency)
	if nil != err {
		return 0, 0, err
	}
	writeInterval, err := parseDuration(s.WriteInterval)
	if nil != err {
		return 0, 0, err
	}
	return latency, writeInterval, nil
}

// empty string is zero, negative durations are rejected
func parseDuration(s string) (time.Duration, error) {
	if "" == s {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if nil != err || d < 0 {
		return 0, fault.ErrInvalidDuration
	}
	return d, nil
}

// ensure the path is absolute
func ensureAbsolute(directory string, filePath string) string {
	if !filepath.IsAbs(filePath) {
		filePath = filepath.Join(directory, filePath)
	}
	return filepath.Clean(filePath)
}
