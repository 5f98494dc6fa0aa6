// Package ws streams the dataset overview to connected dashboard clients over
// WebSocket. Every client receives the current overview immediately on
// connect, then on every broadcast tick, and again whenever the backing
// source file is reloaded. Slow clients whose send buffer fills are
// disconnected rather than allowed to stall the hub.
package ws
