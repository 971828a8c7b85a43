package main

import (
	"context"

	"nemis-backend/cmd/nemis-cli/commands"
	"nemis-backend/lib/telemetry"
)

func main() {
	telemetry.SetupFromEnv(context.Background(), "nemis-cli")
	telemetry.InitSlog(true)
	commands.ExecuteContext(context.Background())
}
