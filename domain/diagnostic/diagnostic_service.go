package diagnostic

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Metrics represents control-loop run statistics
type Metrics struct {
	Timestamp       time.Time `json:"timestamp"`
	Ticks           uint64    `json:"ticks"`
	Submissions     uint64    `json:"submissions"`
	IKFailures      uint64    `json:"ik_failures"`
	SkippedNotReady uint64    `json:"skipped_not_ready"`
	SkippedTiming   uint64    `json:"skipped_timing"`
	LastTargetDeg   []float64 `json:"last_target_deg,omitempty"`
	LastSubmission  time.Time `json:"last_submission,omitempty"`
}

// Service tracks controller diagnostics
type Service struct {
	mu      sync.RWMutex
	metrics Metrics
}

// NewService creates a new diagnostic service instance
func NewService() *Service {
	return &Service{
		metrics: Metrics{Timestamp: time.Now()},
	}
}

// RecordTick counts one completed control tick
func (s *Service) RecordTick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.Ticks++
	s.metrics.Timestamp = time.Now()
}

// RecordIKFailure counts a tick whose target pose was unreachable
func (s *Service) RecordIKFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.IKFailures++
}

// RecordSkipNotReady counts a tick where the serial link was not ready
func (s *Service) RecordSkipNotReady() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.SkippedNotReady++
}

// RecordSkipTiming counts a tick rejected by the admission heuristic
func (s *Service) RecordSkipTiming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.SkippedTiming++
}

// RecordSubmission records a target handed to the serial link
func (s *Service) RecordSubmission(targetDeg []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.Submissions++
	s.metrics.LastTargetDeg = append([]float64(nil), targetDeg...)
	s.metrics.LastSubmission = time.Now()
}

// GetMetrics returns a copy of the current metrics
func (s *Service) GetMetrics() Metrics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m := s.metrics
	m.LastTargetDeg = append([]float64(nil), s.metrics.LastTargetDeg...)
	return m
}

// GetMetricsHandler handles API requests for controller metrics
func (s *Service) GetMetricsHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"metrics": s.GetMetrics(),
	})
}
