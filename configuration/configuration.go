// Copyright 2020 Insolar Network Ltd.
// All rights reserved.
// This material is licensed under the Insolar License version 1.0,
// available at https://github.com/insolar/assured-ledger/blob/master/LICENSE.md.

package configuration

import (
	yaml "gopkg.in/yaml.v2"
)

// Log holds configuration for logging.
type Log struct {
	// Level is a log level of the default logger: debug, info, warn, error.
	Level string
	// Formatter is a format of log output: json, text.
	Formatter string
}

// NewLog creates new default Log configuration.
func NewLog() Log {
	return Log{
		Level:     "info",
		Formatter: "json",
	}
}

// Storage holds configuration for the durable genealogy store.
type Storage struct {
	// DataDirectory is the badger data directory.
	DataDirectory string
	// CandidateLimit caps the size of one relation-candidate batch.
	//
	// IMPORTANT: keep it small; every offered candidate costs one chain lookup
	// in the worst case.
	CandidateLimit int
}

// NewStorage creates new default Storage configuration.
func NewStorage() Storage {
	return Storage{
		DataDirectory:  "./data",
		CandidateLimit: 5,
	}
}

// Chain holds configuration for the chain RPC client.
type Chain struct {
	// RPCURL is the endpoint of the chain node, e.g. http://localhost:8545.
	RPCURL string
}

// NewChain creates new default Chain configuration.
func NewChain() Chain {
	return Chain{
		RPCURL: "http://localhost:8545",
	}
}

// Artifacts holds configuration for deployment artifact discovery.
type Artifacts struct {
	// Directory is scanned non-recursively for *.json artifacts.
	Directory string
}

// NewArtifacts creates new default Artifacts configuration.
func NewArtifacts() Artifacts {
	return Artifacts{
		Directory: "./build/contracts",
	}
}

// Configuration is the root configuration of trufdb.
type Configuration struct {
	Log       Log
	Storage   Storage
	Chain     Chain
	Artifacts Artifacts
}

// NewConfiguration creates new default configuration.
func NewConfiguration() Configuration {
	return Configuration{
		Log:       NewLog(),
		Storage:   NewStorage(),
		Chain:     NewChain(),
		Artifacts: NewArtifacts(),
	}
}

// ToString converts configuration to yaml for pretty printing.
func ToString(in interface{}) string {
	d, err := yaml.Marshal(in)
	if err != nil {
		return "failed to dump configuration"
	}
	return string(d)
}
