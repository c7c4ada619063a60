package server

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// BodyLimitMB bounds request bodies; import batches can be large.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"16"`
}

// BodyLimitBytes returns the request body limit in bytes.
func (c Config) BodyLimitBytes() int {
	mb := c.BodyLimitMB
	if mb <= 0 {
		mb = 16
	}
	return mb * 1024 * 1024
}
