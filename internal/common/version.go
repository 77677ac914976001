package common

// Set at link time: -ldflags "-X .../internal/common.Version=... -X .../internal/common.GitCommit=..."
var (
	Version   = "dev"
	GitCommit = "unknown"
)
