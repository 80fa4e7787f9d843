package config

import (
	"flag"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-f string   frontend base URL
//	-m string   mail driver (log, postmark, kafka)
//	-k string   comma-separated Kafka brokers
//	-l string   log level
//
// The remaining fields are set through JSON or the environment.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-f", "-m", "-k", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.FrontendBaseURL, "f", config.FrontendBaseURL, "frontend base URL")
	fs.StringVar(&config.MailDriver, "m", config.MailDriver, "mail driver")
	brokers := fs.String("k", strings.Join(config.KafkaBrokers, ","), "kafka brokers")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	if *brokers != "" {
		config.KafkaBrokers = strings.Split(*brokers, ",")
	}
}
