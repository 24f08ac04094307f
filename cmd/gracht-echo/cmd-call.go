package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/Meulengracht/gracht"
	"github.com/Meulengracht/gracht/client"
	"github.com/Meulengracht/gracht/config"
	"github.com/Meulengracht/gracht/link/tcp"
	"github.com/Meulengracht/gracht/ops"
	"github.com/Meulengracht/gracht/protocol"
	"github.com/Meulengracht/gracht/wire"
)

var yellow = color.New(color.FgYellow).SprintFunc()
var red = color.New(color.FgRed).SprintFunc()

type cmdCall struct {
	config.ClientConfig
	Message string        `long:"message" default:"hello, gracht" description:"Payload string to echo"`
	Timeout time.Duration `long:"timeout" default:"5s" description:"Deadline for the call to complete"`
}

func (cmd cmdCall) Execute(_ []string) error {
	log := ops.NewLogger()

	reg := protocol.NewRegistry()
	lnk := tcp.NewClient(cmd.Address)
	c, err := client.New(lnk, reg, cmd.ToClientConfig(), log)
	if err != nil {
		return fmt.Errorf("constructing client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to %s: %w", cmd.Address, err)
	}

	w := c.NewWriter()
	w.PutString(cmd.Message)
	call, err := c.Invoke(ctx, w, echoProtocolID, echoActionID, wire.ClassSync)
	if err != nil {
		return fmt.Errorf("invoke: %w", err)
	}
	if err := c.Await(ctx, []*client.Context{call}, client.AwaitAny); err != nil {
		return fmt.Errorf("await: %w", err)
	}

	status, buf, err := c.Status(call)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if status != gracht.StatusCompleted {
		fmt.Printf("%s call did not complete (status %v)\n", red("gracht-echo"), status)
		return c.Shutdown()
	}

	r := wire.NewPayloadReader(buf)
	reply, err := r.GetString()
	if err != nil {
		_ = c.StatusFinalize(call)
		return fmt.Errorf("decoding reply: %w", err)
	}
	if err := c.StatusFinalize(call); err != nil {
		return fmt.Errorf("status finalize: %w", err)
	}

	fmt.Printf("%s %s\n", yellow("echo:"), reply)
	return c.Shutdown()
}
