package instance

import "os"

// GetID returns the process instance identifier used in startup logs.
// DYNO wins over WORKER_ID, then the host name, then "local".
func GetID() string {
	for _, key := range []string{"DYNO", "WORKER_ID"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
