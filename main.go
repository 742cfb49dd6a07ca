package main

import (
	"os"

	"schedule-agent/core/logger"
	"schedule-agent/core/server"

	_ "time/tzdata"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", "error", err)
		os.Exit(1)
	}
}
