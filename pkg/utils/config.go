package utils

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	JWT       JWTConfig
	Payment   PaymentConfig
	Scheduler SchedulerConfig
	Booking   BookingConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
	AppName     string
}

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	IdempotencyTTL time.Duration
}

type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	BookingTopic      string
}

type JWTConfig struct {
	Secret string
}

type PaymentConfig struct {
	StripeSecretKey string
	WebhookSecret   string
	Currency        string
	FrontendURL     string
}

type SchedulerConfig struct {
	Timezone          string
	InventoryCron     string
	ExpiryCron        string
	DaysAhead         int
	SkipWeekdays      []time.Weekday
	FrontSeatFeeCents int64
	TripRetentionDays int
}

type BookingConfig struct {
	PendingTTL time.Duration
}

// Location resolves the scheduler timezone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "transport-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("IDEMPOTENCY_TTL", "24h")
	viper.SetDefault("KAFKA_BROKERS", "localhost:9092")
	viper.SetDefault("KAFKA_NOTIFICATION_TOPIC", "notifications.email")
	viper.SetDefault("KAFKA_BOOKING_TOPIC", "booking.events")
	viper.SetDefault("PAYMENT_CURRENCY", "eur")
	viper.SetDefault("FRONTEND_URL", "http://localhost:3000")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Europe/Paris")
	viper.SetDefault("INVENTORY_CRON", "30 0 * * *")
	viper.SetDefault("EXPIRY_CRON", "@every 5m")
	viper.SetDefault("INVENTORY_DAYS_AHEAD", 30)
	viper.SetDefault("INVENTORY_SKIP_WEEKDAYS", "")
	viper.SetDefault("INVENTORY_FRONT_SEAT_FEE", 0)
	viper.SetDefault("TRIP_RETENTION_DAYS", 7)
	viper.SetDefault("PENDING_BOOKING_TTL", "30m")

	// .env is optional, plain environment variables are enough in containers
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
			AppName:     viper.GetString("APP_NAME"),
		},
		Redis: RedisConfig{
			Addr:           viper.GetString("REDIS_ADDR"),
			Password:       viper.GetString("REDIS_PASSWORD"),
			DB:             viper.GetInt("REDIS_DB"),
			IdempotencyTTL: viper.GetDuration("IDEMPOTENCY_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(viper.GetString("KAFKA_BROKERS")),
			NotificationTopic: viper.GetString("KAFKA_NOTIFICATION_TOPIC"),
			BookingTopic:      viper.GetString("KAFKA_BOOKING_TOPIC"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Payment: PaymentConfig{
			StripeSecretKey: viper.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret:   viper.GetString("STRIPE_WEBHOOK_SECRET"),
			Currency:        viper.GetString("PAYMENT_CURRENCY"),
			FrontendURL:     strings.TrimRight(viper.GetString("FRONTEND_URL"), "/"),
		},
		Scheduler: SchedulerConfig{
			Timezone:          viper.GetString("SCHEDULER_TIMEZONE"),
			InventoryCron:     viper.GetString("INVENTORY_CRON"),
			ExpiryCron:        viper.GetString("EXPIRY_CRON"),
			DaysAhead:         viper.GetInt("INVENTORY_DAYS_AHEAD"),
			SkipWeekdays:      ParseWeekdays(viper.GetString("INVENTORY_SKIP_WEEKDAYS")),
			FrontSeatFeeCents: viper.GetInt64("INVENTORY_FRONT_SEAT_FEE"),
			TripRetentionDays: viper.GetInt("TRIP_RETENTION_DAYS"),
		},
		Booking: BookingConfig{
			PendingTTL: viper.GetDuration("PENDING_BOOKING_TTL"),
		},
	}

	return config, nil
}

// ParseWeekdays turns "sunday,saturday" into weekdays, ignoring unknown names.
func ParseWeekdays(value string) []time.Weekday {
	names := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}

	var days []time.Weekday
	for _, part := range splitList(value) {
		if day, ok := names[strings.ToLower(part)]; ok {
			days = append(days, day)
		}
	}
	return days
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
