package config

import "fmt"

// DBSecret is the JSON shape stored in Secrets Manager for both the
// operational source database and the warehouse.
type DBSecret struct {
	User     string `json:"USER"`
	Password string `json:"PASSWORD"`
	Database string `json:"DATABASE"`
	Host     string `json:"HOST"`
	Port     int    `json:"PORT"`
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Validate rejects secrets that parsed as JSON but do not carry the
// expected structure, so a malformed secret fails the stage up front.
func (s DBSecret) Validate() error {
	if s.User == "" || s.Password == "" || s.Database == "" || s.Host == "" || s.Port == 0 {
		return fmt.Errorf("secret is missing one of USER, PASSWORD, DATABASE, HOST, PORT")
	}
	return nil
}

func (s DBSecret) ToDBConfig() DBConfig {
	return DBConfig{
		Host:     s.Host,
		Port:     s.Port,
		User:     s.User,
		Password: s.Password,
		DBName:   s.Database,
		SSLMode:  "require",
	}
}
