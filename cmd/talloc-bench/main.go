// Command talloc-bench drives a single Pool through a closed-loop random
// mark/clear workload and reports its final occupancy.
package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("talloc-bench: run failed")
		os.Exit(1)
	}
}
