package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	stripeClient "github.com/aaravmahajanofficial/storefront-checkout/pkg/stripe"
	"github.com/hellofresh/health-go/v5"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
	kafkaGo "github.com/segmentio/kafka-go"
)

type Endpoints struct {
	StripeClient stripeClient.Client
	// KafkaBrokers is empty when order events are disabled.
	KafkaBrokers []string
}

func NewHealthHandler(cfg *config.Config, endpoints *Endpoints) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		},
		{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(
				healthRedis.Config{
					DSN: cfg.RedisConnect.GetDSN(),
				},
			),
		},
		{
			Name:      "stripe",
			Timeout:   5 * time.Second,
			SkipOnErr: false,
			Check:     StripeCheck(endpoints.StripeClient),
		},
	}

	if len(endpoints.KafkaBrokers) > 0 {
		// events are best-effort, a broker outage degrades but does not fail the service
		checks = append(checks, health.Config{
			Name:      "kafka",
			Timeout:   3 * time.Second,
			SkipOnErr: true,
			Check:     KafkaCheck(endpoints.KafkaBrokers),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "storefront-checkout",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}

func StripeCheck(client stripeClient.Client) health.CheckFunc {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("stripe client is not initialized")
		}

		if err := client.CheckBalance(ctx); err != nil {
			return fmt.Errorf("failed to connect to stripe: %w", err)
		}

		return nil
	}
}

// KafkaCheck succeeds as soon as one broker accepts a connection.
func KafkaCheck(brokers []string) health.CheckFunc {
	return func(ctx context.Context) error {
		var lastErr error

		for _, broker := range brokers {
			conn, err := kafkaGo.DialContext(ctx, "tcp", broker)
			if err != nil {
				lastErr = err
				continue
			}

			conn.Close()
			return nil
		}

		return fmt.Errorf("no kafka broker reachable: %w", lastErr)
	}
}
