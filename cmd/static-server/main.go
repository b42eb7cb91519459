// Command static-server serves a directory over HTTP/1.1.
//
//	static-server [flags] [addr] [root]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/searchktools/static-server/app"
	"github.com/searchktools/static-server/config"
)

func main() {
	cfg, err := config.Load(os.Args[0], os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	application, err := app.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "server stopped: %v\n", err)
		os.Exit(1)
	}
}
