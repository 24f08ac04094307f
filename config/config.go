// Package config defines the CLI-facing configuration structs bound by
// github.com/jessevdk/go-flags, translated into the plain server.Config
// and client.Config structs the runtime packages take directly — the
// same two-layer split the teacher uses between its flags-tagged
// command structs (e.g. runtime.FlowConsumerConfig) and the plain
// config values its runtime constructors accept.
package config

import (
	"github.com/Meulengracht/gracht/client"
	"github.com/Meulengracht/gracht/server"
)

// ServerConfig is the flags-bindable shape of server.Config.
type ServerConfig struct {
	Address          string `long:"address" default:":7032" description:"TCP address to listen on"`
	Workers          int    `long:"workers" default:"0" description:"Worker pool size; 0 dispatches handlers inline on the receiving goroutine"`
	WorkerQueueDepth int    `long:"worker-queue-depth" default:"0" description:"Per-worker bounded job queue depth; 0 selects the runtime default"`
	MaxMessageSize   int    `long:"max-message-size" default:"0" description:"Per-message size ceiling in bytes, header included; 0 selects the runtime default"`
	ArenaSize        int    `long:"arena-size" default:"0" description:"Receive arena size in bytes; 0 selects the runtime default"`
}

// ToServerConfig translates the flags-bound struct into server.Config.
func (c ServerConfig) ToServerConfig() server.Config {
	return server.Config{
		Workers:          c.Workers,
		WorkerQueueDepth: c.WorkerQueueDepth,
		MaxMessageSize:   c.MaxMessageSize,
		ArenaSize:        c.ArenaSize,
	}
}

// ClientConfig is the flags-bindable shape of client.Config.
type ClientConfig struct {
	Address        string `long:"address" default:"127.0.0.1:7032" description:"TCP address of the server to connect to"`
	MaxMessageSize int    `long:"max-message-size" default:"0" description:"Per-message size ceiling in bytes, header included; 0 selects the runtime default"`
	ArenaSize      int    `long:"arena-size" default:"0" description:"Receive arena size in bytes; 0 selects the runtime default"`
}

// ToClientConfig translates the flags-bound struct into client.Config.
func (c ClientConfig) ToClientConfig() client.Config {
	return client.Config{
		MaxMessageSize: c.MaxMessageSize,
		ArenaSize:      c.ArenaSize,
	}
}
