// internal/service/discovery_service.go
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/transport"
	"printer-service/internal/utils"
)

const defaultScanTimeout = 15 * time.Second

// DiscoveryService scans every transport that can list printers
type DiscoveryService struct {
	registry *transport.Registry
	logger   *utils.ServiceLogger
}

// NewDiscoveryService creates a discovery service over registry
func NewDiscoveryService(registry *transport.Registry, logger *zap.Logger) *DiscoveryService {
	return &DiscoveryService{
		registry: registry,
		logger:   utils.NewServiceLogger(logger, "discovery-service"),
	}
}

// ScanRequest selects transports; empty means all
type ScanRequest struct {
	Transports []model.TransportKind `json:"transports,omitempty"`
	Timeout    time.Duration         `json:"timeout,omitempty"`
}

// ScanResult aggregates every transport's findings
type ScanResult struct {
	Printers []transport.DiscoveredPrinter `json:"printers"`
	Scanned  []model.TransportKind         `json:"scanned"`
	Errors   map[string]string             `json:"errors,omitempty"`
	Duration time.Duration                 `json:"duration"`
}

// Transports lists the kinds that support scanning
func (ds *DiscoveryService) Transports() []model.TransportKind {
	var kinds []model.TransportKind
	for _, d := range ds.registry.Discoverers() {
		kinds = append(kinds, d.Name())
	}
	return kinds
}

// Scan runs the selected discoverers concurrently. A failing transport is
// reported in Errors and does not fail the scan.
func (ds *DiscoveryService) Scan(ctx context.Context, req *ScanRequest) (*ScanResult, error) {
	if req == nil {
		req = &ScanRequest{}
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultScanTimeout
	}

	discoverers, err := ds.selectDiscoverers(req.Transports)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result := &ScanResult{Printers: []transport.DiscoveredPrinter{}, Errors: map[string]string{}}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, d := range discoverers {
		result.Scanned = append(result.Scanned, d.Name())

		wg.Add(1)
		go func(d transport.Discoverer) {
			defer wg.Done()

			kind := string(d.Name())
			if err := d.Available(); err != nil {
				ds.logger.Debug("Transport not available, skipping", zap.String("transport", kind), zap.Error(err))
				mu.Lock()
				result.Errors[kind] = err.Error()
				mu.Unlock()
				return
			}

			found, err := d.Discover(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				ds.logger.Warn("Scan failed", zap.String("transport", kind), zap.Error(err))
				result.Errors[kind] = err.Error()
			}
			result.Printers = append(result.Printers, found...)
			ds.logger.Info("Scan completed", zap.String("transport", kind), zap.Int("printers_found", len(found)))
		}(d)
	}
	wg.Wait()

	sort.Slice(result.Printers, func(i, j int) bool {
		a, b := result.Printers[i], result.Printers[j]
		if a.Transport != b.Transport {
			return a.Transport < b.Transport
		}
		return a.ID < b.ID
	})
	result.Duration = time.Since(start)

	ds.logger.Info("Printer discovery finished",
		zap.Int("printers_found", len(result.Printers)),
		zap.Int("failed_transports", len(result.Errors)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (ds *DiscoveryService) selectDiscoverers(kinds []model.TransportKind) ([]transport.Discoverer, error) {
	all := ds.registry.Discoverers()
	if len(kinds) == 0 {
		return all, nil
	}

	byKind := make(map[model.TransportKind]transport.Discoverer, len(all))
	for _, d := range all {
		byKind[d.Name()] = d
	}

	out := make([]transport.Discoverer, 0, len(kinds))
	for _, k := range kinds {
		d, ok := byKind[k]
		if !ok {
			return nil, fmt.Errorf("%w: %q cannot scan", ErrInvalidRequest, k)
		}
		out = append(out, d)
	}
	return out, nil
}
