package config

import (
	"github.com/spf13/viper"
)

// Configuration comes from environment variables; in a cluster these are
// set per pod, locally the defaults point at docker-compose services.

type Config struct {
	DBHost            string `mapstructure:"DB_HOST"`
	DBPort            string `mapstructure:"DB_PORT"`
	DBUser            string `mapstructure:"DB_USER"`
	DBPassword        string `mapstructure:"DB_PASSWORD"`
	DBName            string `mapstructure:"DB_NAME"`
	ServerPort        string `mapstructure:"SERVER_PORT"`
	AWSRegion         string `mapstructure:"AWS_REGION"`
	PunchSQSQueueURL  string `mapstructure:"PUNCH_SQS_QUEUE_URL"`
	AuditSQSQueueURL  string `mapstructure:"AUDIT_SQS_QUEUE_URL"`
	AWSEndpoint       string `mapstructure:"AWS_ENDPOINT"`
	ShiftDirectoryURL string `mapstructure:"SHIFT_DIRECTORY_URL"`
	OTLPEndpoint      string `mapstructure:"OTLP_ENDPOINT"`
	IsLocalDev        bool   `mapstructure:"IS_LOCAL_DEV"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "attendance_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("PUNCH_SQS_QUEUE_URL", "http://localstack:4566/000000000000/punch-queue")
	viper.SetDefault("AUDIT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/audit-queue")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("SHIFT_DIRECTORY_URL", "http://localhost:8081")
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
