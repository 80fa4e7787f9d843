package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so both "10s" and integer nanoseconds are accepted.
// Absent keys leave the corresponding Config field unchanged.
type JsonConfig struct {
	EndpointAddrHTTP     *string         `json:"endpoint_addr_http"`
	DatabaseDSN          *string         `json:"database_dsn"`
	FrontendBaseURL      *string         `json:"frontend_base_url"`
	MailFrom             *string         `json:"mail_from"`
	MailDriver           *string         `json:"mail_driver"`
	PostmarkServerToken  *string         `json:"postmark_server_token"`
	PostmarkAccountToken *string         `json:"postmark_account_token"`
	KafkaBrokers         []string        `json:"kafka_brokers"`
	KafkaTopic           *string         `json:"kafka_topic"`
	BcryptCost           *int            `json:"bcrypt_cost"`
	ResetTokenAttempts   *int            `json:"reset_token_attempts"`
	ShutdownTimeout      *timex.Duration `json:"shutdown_timeout"`
	LogLevel             *string         `json:"log_level"`
}

// parseJson overlays values from the JSON file named by -c/-config (or
// $CONFIG). Without a file nothing changes; an unreadable or malformed
// file panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFile(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.FrontendBaseURL, c.FrontendBaseURL)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.MailDriver, c.MailDriver)
	setString(&config.PostmarkServerToken, c.PostmarkServerToken)
	setString(&config.PostmarkAccountToken, c.PostmarkAccountToken)
	setString(&config.KafkaTopic, c.KafkaTopic)
	setString(&config.LogLevel, c.LogLevel)
	if c.KafkaBrokers != nil {
		config.KafkaBrokers = c.KafkaBrokers
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
	if c.ResetTokenAttempts != nil {
		config.ResetTokenAttempts = *c.ResetTokenAttempts
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
