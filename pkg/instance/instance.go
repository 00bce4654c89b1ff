package instance

import "os"

// ID names the running process in logs: the Cloud Run revision, then the
// host name, then "local".
func ID() string {
	for _, key := range []string{"K_REVISION", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
