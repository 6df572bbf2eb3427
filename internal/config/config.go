package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	SeedCatalog bool   `env:"SEED_CATALOG" envDefault:"false"`

	Database  Database  `envPrefix:"DB_"`
	Paystack  Paystack  `envPrefix:"PAYSTACK_"`
	JWT       JWT       `envPrefix:"JWT_"`
	RateLimit RateLimit `envPrefix:"RATE_LIMIT_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	Kafka     Kafka     `envPrefix:"KAFKA_"`
}

type Database struct {
	Driver          string        `env:"DRIVER" envDefault:"sqlite"` // sqlite, mysql, postgres
	URL             string        `env:"URL" envDefault:"shop.db"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"50"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
}

type Paystack struct {
	BaseApiURL  string        `env:"BASE_API_URL" envDefault:"https://api.paystack.co"`
	SecretKey   string        `env:"SECRET_KEY,notEmpty"`
	Currency    string        `env:"CURRENCY" envDefault:"GHS"`
	CallbackURL string        `env:"CALLBACK_URL"`
	Timeout     time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

type JWT struct {
	Secret string `env:"SECRET,notEmpty"`
	Issuer string `env:"ISSUER" envDefault:"shop-api"`
}

type RateLimit struct {
	Enabled bool    `env:"ENABLED" envDefault:"true"`
	Store   string  `env:"STORE" envDefault:"memory"` // memory, redis
	Rate    float64 `env:"RATE" envDefault:"20"`      // requests per second per client
	Burst   int     `env:"BURST" envDefault:"40"`
}

type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"shop.order-events"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
