package instance

import (
	"os"

	"github.com/angelmondragon/tradelink-backend/pkg/env"
)

const fallbackID = "local"

// ID identifies this process in logs. TRADELINK_INSTANCE_ID wins, then the
// platform dyno name, then the hostname.
func ID() string {
	if id, ok := env.First("TRADELINK_INSTANCE_ID", "DYNO"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
