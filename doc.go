/*
Package staticserver is a small HTTP/1.1 static file server built directly on
TCP sockets.

It parses raw request heads, maps request paths onto a root directory and
streams files back. Large files are never sent in one response: each
response carries at most a fixed number of bytes (the transfer cap) as
206 Partial Content, and the connection stays open for the client's next
"Range: bytes=<offset>-" request until the last byte has been delivered.
Directories without an index.html get a generated listing.

Quick Start

	package main

	import (
	    "context"
	    "log"

	    "github.com/searchktools/static-server/app"
	    "github.com/searchktools/static-server/config"
	)

	func main() {
	    cfg := config.Default()
	    cfg.Root = "./public"

	    application, err := app.New(cfg)
	    if err != nil {
	        log.Fatal(err)
	    }
	    if err := application.Run(context.Background()); err != nil {
	        log.Fatal(err)
	    }
	}

Modules

  - app: application lifecycle, logging setup, signal handling
  - config: configuration from defaults, JSON, environment and flags
  - core: listener, connection state machine, statistics
  - core/http: request parser and response encoder
  - core/files: path resolution, byte ranges, directory listings
  - core/pools: buffer pools, live connection tracking, GC tuning
  - cmd/static-server: command line entry point

Protocol

Only GET and HEAD are understood. Responses are 200, 206, 400 or 404 and
carry Content-Type, Content-Length and, for partial content, Content-Range.
Paths are canonicalized and must stay inside the root; anything else is
answered with 404.
*/
package staticserver
