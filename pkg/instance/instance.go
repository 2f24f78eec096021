package instance

import "os"

// GetID identifies the running process in logs and lock ownership. It
// prefers FOODYZONE_INSTANCE_ID, then the host name.
func GetID() string {
	if id := os.Getenv("FOODYZONE_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
