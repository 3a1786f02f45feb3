// Package httpserver exposes the collector's ingest and graph query API
// over HTTP.
package httpserver
