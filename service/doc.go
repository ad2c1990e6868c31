// Package service orchestrates the core components of the system: engine,
// trade journal, trade log, live feed and metrics.
//
// It is the only write entry point above the engine; transports such as the
// HTTP API and the simulation feeder call into it and never touch the books
// directly.
package service
