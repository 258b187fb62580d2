package exitcodes

// Exit codes for the cpu-limiter daemon
// These codes form the operational contract with init systems and operators
const (
	Success        = 0 // Successful execution
	InvalidConfig  = 2 // Configuration file invalid or missing
	AlreadyRunning = 3 // Another daemon instance holds the lock
	RuntimeError   = 4 // Runtime error during execution
)
