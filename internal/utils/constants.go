package utils

// Configuration file locations.
const (
	// ConfigurationDirectoryName is the per-user directory holding the global configuration.
	ConfigurationDirectoryName = ".llm-fuse"
	// ConfigurationFileName is the global configuration file name inside ConfigurationDirectoryName.
	ConfigurationFileName = "config.yaml"
	// LocalConfigurationFileName is the project configuration file read from the working directory.
	LocalConfigurationFileName = ".llm-fuse.yaml"
)

// LoggerInitializationFailedMessageFormat reports a logger that could not be built.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// ApplicationExecutionFailedMessage prefixes the fatal log line of a failed run.
const ApplicationExecutionFailedMessage = "llm-fuse failed"
