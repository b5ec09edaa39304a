package external

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/afyacheck/screening-server/internal/domain"
)

// ResilientModelClient wraps the classifier client with a circuit
// breaker and prediction caching. It implements domain.ModelService.
type ResilientModelClient struct {
	client  *ModelClient
	cache   *PredictionCache
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewResilientModelClient creates a breaker-wrapped classifier client.
// The cache may be nil, in which case no fallback is available.
func NewResilientModelClient(client *ModelClient, cache *PredictionCache, logger *logrus.Logger) *ResilientModelClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ModelAPI",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientModelClient{
		client:  client,
		cache:   cache,
		breaker: breaker,
		log:     logger,
	}
}

// Predict returns the classifier's recommendation, consulting the cache
// first and falling back to it when the breaker is open.
func (r *ResilientModelClient) Predict(ctx context.Context, condition domain.Condition, features []int) (string, error) {
	if r.cache != nil {
		if cached, found, err := r.cache.GetPrediction(ctx, condition, features); err == nil && found {
			return cached.Recommendation, nil
		}
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.Predict(ctx, condition, features)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return "", fmt.Errorf("model API unavailable (circuit breaker open)")
		}
		return "", err
	}

	recommendation := result.(string)

	if r.cache != nil {
		if cacheErr := r.cache.SetPrediction(ctx, condition, features, recommendation, nil, 0); cacheErr != nil {
			r.log.WithError(cacheErr).Warn("Failed to cache prediction")
		}
	}

	return recommendation, nil
}

// PredictProba returns the class probability vector for encoded features.
func (r *ResilientModelClient) PredictProba(ctx context.Context, condition domain.Condition, features []int) ([]float64, error) {
	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.PredictProba(ctx, condition, features)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("model API unavailable (circuit breaker open)")
		}
		return nil, err
	}
	return result.([]float64), nil
}

// PopulationScores returns the population score vector, served from
// cache when available.
func (r *ResilientModelClient) PopulationScores(ctx context.Context, condition domain.Condition) ([]float64, error) {
	if r.cache != nil {
		if scores, found, err := r.cache.GetPopulationScores(ctx, condition); err == nil && found {
			return scores, nil
		}
	}

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.client.PopulationScores(ctx, condition)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("model API unavailable (circuit breaker open)")
		}
		return nil, err
	}

	scores := result.([]float64)

	if r.cache != nil {
		if cacheErr := r.cache.SetPopulationScores(ctx, condition, scores, 0); cacheErr != nil {
			r.log.WithError(cacheErr).Warn("Failed to cache population scores")
		}
	}

	return scores, nil
}

// BreakerCounts returns breaker statistics for health reporting.
func (r *ResilientModelClient) BreakerCounts() gobreaker.Counts {
	return r.breaker.Counts()
}

// ResilientSMSSender wraps the SMS gateway with a circuit breaker.
// It implements domain.SMSSender.
type ResilientSMSSender struct {
	client  *SMSClient
	breaker *gobreaker.CircuitBreaker
}

// NewResilientSMSSender creates a breaker-wrapped SMS sender.
func NewResilientSMSSender(client *SMSClient, logger *logrus.Logger) *ResilientSMSSender {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "SMSGateway",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 2 && failureRatio >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ResilientSMSSender{
		client:  client,
		breaker: breaker,
	}
}

// Send delivers a message through the gateway behind the breaker.
func (r *ResilientSMSSender) Send(ctx context.Context, phone, message string) error {
	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.client.Send(ctx, phone, message)
	})
	if err == gobreaker.ErrOpenState {
		return fmt.Errorf("SMS gateway unavailable (circuit breaker open)")
	}
	return err
}
