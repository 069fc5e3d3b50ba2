package config

// Default configuration values.
const (
	DefaultRoot           = "."
	DefaultStoreBackend   = BackendFile
	DefaultStoreDirectory = ".bundlesize"
	DefaultGitHubAPIURL   = "https://api.github.com"
	DefaultGitHubServer   = "https://github.com"
	DefaultLogLevel       = "info"
)
