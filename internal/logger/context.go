package logger

// Component-specific logger functions

// Migration returns a logger for schema migration runs
func Migration() Logger {
	return WithField("component", "migration")
}

// DB returns a logger for record store operations
func DB() Logger {
	return WithField("component", "db")
}

// CLI returns a logger for CLI operations
func CLI() Logger {
	return WithField("component", "cli")
}

// HTTP returns a logger for the API server
func HTTP() Logger {
	return WithField("component", "http")
}
