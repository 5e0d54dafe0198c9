// Package telemetry registra las métricas Prometheus del bot.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	MessagesProcessed  *prometheus.CounterVec
	CommandsDispatched *prometheus.CounterVec
	CommandFailures    *prometheus.CounterVec
	AliasExpansions    prometheus.Counter
	AliasDepthExceeded prometheus.Counter
	LinksHarvested     prometheus.Counter
	ClipsAcquired      prometheus.Counter
	ClipFailures       prometheus.Counter
	ClipDuration       prometheus.Observer
	PlaybackRequests   *prometheus.CounterVec
)

// Init registra las métricas. Se puede llamar varias veces.
func Init() {
	once.Do(func() {
		MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{Name: "droidbot_messages_processed_total", Help: "Chat messages processed by the pipeline"}, []string{"platform"})
		CommandsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{Name: "droidbot_commands_dispatched_total", Help: "Commands dispatched by outcome"}, []string{"outcome"})
		CommandFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "droidbot_command_failures_total", Help: "Built-in command handlers that returned an error"}, []string{"command"})
		AliasExpansions = promauto.NewCounter(prometheus.CounterOpts{Name: "droidbot_alias_expansions_total", Help: "Alias hops taken"})
		AliasDepthExceeded = promauto.NewCounter(prometheus.CounterOpts{Name: "droidbot_alias_depth_exceeded_total", Help: "Alias chains aborted at the depth ceiling"})
		LinksHarvested = promauto.NewCounter(prometheus.CounterOpts{Name: "droidbot_links_harvested_total", Help: "New links stored from chat"})
		ClipsAcquired = promauto.NewCounter(prometheus.CounterOpts{Name: "droidbot_clips_acquired_total", Help: "Clips acquired successfully"})
		ClipFailures = promauto.NewCounter(prometheus.CounterOpts{Name: "droidbot_clip_failures_total", Help: "Clip acquisitions that failed"})
		ClipDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "droidbot_clip_acquire_duration_seconds", Help: "Clip acquisition duration seconds", Buckets: prometheus.DefBuckets})
		PlaybackRequests = promauto.NewCounterVec(prometheus.CounterOpts{Name: "droidbot_playback_requests_total", Help: "Playback requests by result"}, []string{"result"})
	})
}

func IncCommand(outcome string) {
	if CommandsDispatched != nil {
		CommandsDispatched.WithLabelValues(outcome).Inc()
	}
}

func IncCommandFailure(name string) {
	if CommandFailures != nil {
		CommandFailures.WithLabelValues(name).Inc()
	}
}

func IncMessage(platform string) {
	if MessagesProcessed != nil {
		MessagesProcessed.WithLabelValues(platform).Inc()
	}
}

func IncPlayback(result string) {
	if PlaybackRequests != nil {
		PlaybackRequests.WithLabelValues(result).Inc()
	}
}

func Inc(c prometheus.Counter) {
	if c != nil {
		c.Inc()
	}
}

func Observe(o prometheus.Observer, seconds float64) {
	if o != nil {
		o.Observe(seconds)
	}
}
