package gateway

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"ordergateway/src/database"
	"ordergateway/src/server"
)

type Gateway struct{}

func (g *Gateway) Start() error {
	setupLogger()

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to ledger database")
		return err
	}

	config := server.GetConfig()
	logrus.WithField("port", config.Port).Info("Starting order gateway")

	server.StartServer(config.Port)
	return nil
}

func setupLogger() {
	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
