//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"ChartFeed/pkg/config"
	"ChartFeed/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application together with a
// cleanup function that releases infrastructure clients.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideAPIMetrics,

		// Infrastructure
		ProvideCache,
		ProvideUpstreamThrottle,
		ProvideHTTPClient,
		ProvideAuditSink,

		// Acquisition
		ProvideGenerator,
		ProvideStrategies,
		ProvideBarAcquirer,

		// Use cases
		ProvideChartSeries,
		ProvideSourceProber,

		// Transport
		ProvideChartHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
