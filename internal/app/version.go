package app

const ServiceName = "results-service"

// Set via -ldflags during build:
//
//	go build -ldflags="-X 'github.com/RIKASH04/Resulyhub/internal/app.Version=1.0.0'"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)
