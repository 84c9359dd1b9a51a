package main

import (
	"flag"
	"log"
	"os"

	"github.com/trezcool/darasa/core"
	logsvc "github.com/trezcool/darasa/services/logger"
	"github.com/trezcool/darasa/services/sandbox"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	flag.Parse()

	conf := core.NewConfig()
	logger := logsvc.NewConsoleLogger(log.New(os.Stdout, "SANDBOX : ", log.LstdFlags|log.Lmicroseconds))

	bank := sandbox.NewBank()
	bank.Seed()

	app := sandbox.NewServer(&sandbox.Options{
		Addr:      *addr,
		SecretKey: []byte(conf.SecretKey),
		Bank:      bank,
		Logger:    logger,
	})
	app.Start()
}
