package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/homeinspect/internal/config"
	"github.com/vbonduro/homeinspect/internal/session"
	"github.com/vbonduro/homeinspect/internal/views"
)

func main() {
	cfg := config.LoadClient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(cfg, os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

func describe(err error) string {
	var nf *views.NotFoundError
	switch {
	case errors.Is(err, session.ErrNotSignedIn):
		return "not signed in, run: inspectctl signin"
	case errors.As(err, &nf):
		return nf.Error()
	default:
		return err.Error()
	}
}
