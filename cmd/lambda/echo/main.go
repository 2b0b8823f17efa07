package main

import (
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/sirupsen/logrus"

	"lambda-tester/internal/config"
	"lambda-tester/internal/handlers"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	if level, err := logrus.ParseLevel(config.GetEnv("LOG_LEVEL", "info")); err == nil {
		logger.SetLevel(level)
	}

	h := handlers.NewEchoHandler(logger.WithField("region", config.Region()))
	awslambda.Start(h.Handle)
}
