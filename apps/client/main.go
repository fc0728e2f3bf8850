package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/session"
	"github.com/trezcool/academia/services/apiclient"
	"github.com/trezcool/academia/services/logger"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stderr, "CLIENT : ", log.LstdFlags),
		conf,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli := commandLine{
		client: apiclient.New(
			conf.Client.BaseURL,
			session.NewFileStore(conf.Client.TokenFile),
			apiclient.WithTimeout(conf.Client.Timeout),
		),
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}

	err := cli.run(ctx, os.Args)
	stop()
	if err != nil {
		if err != errHelp && err != apiclient.ErrClosed {
			logger.Info(fmt.Sprintf("%s failed: %v", os.Args[1], err))
		}
		logger.Close()
		os.Exit(1)
	}
	logger.Close()
}
