package commands

// CommonConfig contains configuration common to all commands
type CommonConfig struct {
	// DataDir is the path to the data directory
	DataDir string `help:"Path to data directory" default:"./data" env:"BOOKING_DATA_DIR"`
	// Timezone is the timezone QIF export dates are written in
	Timezone string `help:"Timezone of dates in QIF exports" default:"UTC" env:"BOOKING_TIMEZONE"`
	// LogLevel is the logging level to use
	LogLevel string `help:"Log level (debug, info, warn, error)" default:"warn" enum:"debug,info,warn,error" env:"BOOKING_LOG_LEVEL"`
}

// SourceConfig selects where booking snapshots are loaded from
type SourceConfig struct {
	Source       string `help:"Booking source (demo, qif, sqlite)" default:"demo" enum:"demo,qif,sqlite" env:"BOOKING_SOURCE"`
	QIFFile      string `help:"QIF export to load with --source=qif" type:"path" env:"BOOKING_QIF_FILE"`
	Bank         string `help:"Bank profile used to read QIF exports" default:"ing-australia" enum:"ing-australia,amex" env:"BOOKING_BANK"`
	Account      string `help:"Money account id assigned to QIF bookings" default:"QIF" env:"BOOKING_ACCOUNT"`
	LoadAttempts uint   `help:"Attempts made to load a snapshot before giving up" default:"3" env:"BOOKING_LOAD_ATTEMPTS"`
}

// IndexConfig controls index builds and query behaviour
type IndexConfig struct {
	FuzzyDistance int  `help:"Edit distance used by fuzzy searches (0-2)" default:"1" env:"BOOKING_FUZZY_DISTANCE"`
	FailFast      bool `help:"Abort a rebuild on the first malformed booking" env:"BOOKING_FAIL_FAST"`
	Concurrency   int  `help:"Goroutines used to analyze bookings (0 uses all CPUs)" default:"0" env:"BOOKING_CONCURRENCY"`
}
