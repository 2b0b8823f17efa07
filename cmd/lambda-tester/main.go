// Command lambda-tester prints the synthetic contexts and events used by the
// tester and runs a standalone X-Ray collector.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	if err := newRootCmd(logger).Execute(); err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
