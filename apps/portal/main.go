package main

import (
	"log"
	"os"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/nav"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/session"
	"github.com/trezcool/darasa/services/lmsapi"
	logsvc "github.com/trezcool/darasa/services/logger"
	tokenstore "github.com/trezcool/darasa/storage/token"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "PORTAL : ", log.LstdFlags)
	conf := core.NewConfig()

	std := log.New(os.Stdout, "", log.LstdFlags)
	var appLog core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		appLog = logsvc.NewConsoleLogger(std)
	} else {
		appLog = logsvc.NewRollbarLogger(std, conf)
	}

	// boot: restore identity from the persisted token
	sessions := session.NewStore(tokenstore.NewFileStorage(conf.TokenPath))
	sessions.Restore()

	api := lmsapi.NewClient(conf.API, sessions.Token, appLog)

	cli := commandLine{
		sessions: sessions,
		guard:    nav.NewGuard(sessions),
		api:      api,
		engine:   quiz.NewEngine(api, appLog),
		out:      os.Stdout,
		in:       os.Stdin,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
