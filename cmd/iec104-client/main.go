// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/pflag"

	"github.com/marrasen/iec104/asdu"
	"github.com/marrasen/iec104/cs104"
)

func main() {
	addr := pflag.StringP("addr", "a", "127.0.0.1:2404", "server address, host:port")
	ca := pflag.Uint16P("ca", "c", 1, "common address to interrogate")
	qualifier := pflag.IntP("qualifier", "q", int(asdu.QOIStation), "interrogation qualifier of interest (20 = station)")
	timeout := pflag.DurationP("timeout", "t", 10*time.Second, "general interrogation timeout")
	withOA := pflag.Bool("with-oa", false, "include the originator address octet on outbound ASDUs")
	help := pflag.BoolP("help", "h", false, "print usage and exit")
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := cs104.DefaultConfig()
	cfg.WithOA = *withOA
	opt := cs104.NewClientOption(*addr).SetConfig(cfg)

	fmt.Printf("connecting to %s\n", *addr)
	client, err := cs104.Dial(ctx, *addr, opt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()
	fmt.Println("handshake complete, running")

	data, err := client.GeneralInterrogation(ctx, asdu.CommonAddr(*ca), asdu.QualifierOfInterrogation(*qualifier), 0, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "interrogation failed: %v\n", err)
		os.Exit(1)
	}
	for _, a := range data {
		fmt.Println(a)
	}

	select {
	case <-ctx.Done():
	case <-client.Done():
	}
	fmt.Println("connection closed")
}
