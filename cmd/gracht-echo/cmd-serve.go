package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/Meulengracht/gracht/config"
	"github.com/Meulengracht/gracht/link/tcp"
	"github.com/Meulengracht/gracht/ops"
	"github.com/Meulengracht/gracht/protocol"
	"github.com/Meulengracht/gracht/server"
)

var green = color.New(color.FgGreen).SprintFunc()

type cmdServe struct {
	config.ServerConfig
}

func (cmd cmdServe) Execute(_ []string) error {
	log := ops.NewLogger()

	reg := protocol.NewRegistry()
	registerEcho(reg)

	srv, err := server.New(reg, cmd.ToServerConfig(), log)
	if err != nil {
		return fmt.Errorf("constructing server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lnk := tcp.NewServer(cmd.Address)
	idx, err := srv.AddLink(ctx, lnk)
	if err != nil {
		return fmt.Errorf("adding tcp link: %w", err)
	}

	fmt.Printf("%s listening on %s\n", green("gracht-echo"), cmd.Address)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ctx, idx) }()

	select {
	case <-sig:
		ops.Info(log, nil, "received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	cancel()
	srv.Shutdown()
	return nil
}
