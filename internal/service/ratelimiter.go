package service

import (
	"time"

	"github.com/econindex/classifier/internal/config"
	"github.com/econindex/classifier/internal/ratelimiter"
)

func newRateLimiterScheduler(cfg config.RateLimiterConfig) *ratelimiter.Scheduler {
	rc := ratelimiter.Config{
		TargetRPM:                     cfg.TargetRPM,
		EstimatedRequestsPerIndicator: cfg.EstimatedRequestsPerIndicator,
		MinDelay:                      time.Duration(cfg.MinDelayMS) * time.Millisecond,
		Cooldown:                      time.Duration(cfg.CooldownSecs) * time.Second,
	}
	return ratelimiter.NewScheduler(rc)
}
