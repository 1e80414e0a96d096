package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/offreitas/opencl-vec-add/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logrus.WithError(err).Error("vecsum failed")
		os.Exit(1)
	}
}
