// SPDX-License-Identifier: MIT
// Copyright (c) 2025 go-iecp5 contributors.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/marrasen/iec104/asdu"
	"github.com/marrasen/iec104/cs104"
)

func main() {
	addr := pflag.StringP("listen", "l", ":2404", "address to listen on")
	allow := pflag.StringP("allow", "A", "", "comma-separated allowlist of client hosts (empty allows all)")
	withOA := pflag.Bool("with-oa", false, "include the originator address octet on outbound ASDUs")
	help := pflag.BoolP("help", "h", false, "print usage and exit")
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	cfg := cs104.DefaultConfig()
	cfg.WithOA = *withOA
	opt := cs104.NewServerOption().SetConfig(cfg)
	if *allow != "" {
		opt.SetConnectionPolicy(cs104.IPAllowlist(strings.Split(*allow, ",")...))
	}

	srv := cs104.NewServer(cs104.HandlerFunc(handle), opt)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown: %v\n", err)
		}
	}()

	fmt.Printf("listening on %s\n", *addr)
	if err := srv.ListenAndServe(*addr); err != nil && err != cs104.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "serve failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("server stopped")
}

func handle(sess *cs104.Session, a *asdu.ASDU) error {
	if a.Type == asdu.CIcNa1 && a.Cause.Value == asdu.Activation {
		return respondToInterrogation(sess, a)
	}
	fmt.Println(a)
	return nil
}

func respondToInterrogation(sess *cs104.Session, req *asdu.ASDU) error {
	ic, ok := req.Objects[0].Element.(asdu.Interrogation)
	if !ok {
		return nil
	}
	ctx := context.Background()

	confirm := asdu.NewASDU(req.Params, asdu.Identifier{
		Type:       asdu.CIcNa1,
		Variable:   asdu.VSQ{Number: 1},
		Cause:      asdu.Cause{Value: asdu.ActivationConfirmation},
		CommonAddr: req.CommonAddr,
	})
	confirm.Objects = []asdu.InformationObject{{IOA: 0, Element: ic}}
	if err := sess.Send(ctx, confirm); err != nil {
		return err
	}

	term := asdu.NewASDU(req.Params, asdu.Identifier{
		Type:       asdu.CIcNa1,
		Variable:   asdu.VSQ{Number: 1},
		Cause:      asdu.Cause{Value: asdu.CommandTermination},
		CommonAddr: req.CommonAddr,
	})
	term.Objects = []asdu.InformationObject{{IOA: 0, Element: ic}}
	return sess.Send(ctx, term)
}
