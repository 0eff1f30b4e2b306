/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gbatanov/zlock/lock"
)

const namespace = "zlock"

// Recorder turns lock events into prometheus series.
type Recorder struct {
	events     *prometheus.CounterVec
	failures   *prometheus.CounterVec
	alarmOn    prometheus.Gauge
	doorOpen   prometheus.Gauge
	lastUnlock prometheus.Gauge
	requests   *prometheus.HistogramVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Lock events by kind.",
		}, []string{"kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_failures_total",
			Help:      "Wrong passwords by context and attempt.",
		}, []string{"context", "attempt"}),
		alarmOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "alarm_active",
			Help:      "1 while the buzzer sounds.",
		}),
		doorOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "door_open",
			Help:      "1 from the start of opening until the door is closed.",
		}),
		lastUnlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_unlock_timestamp_seconds",
			Help:      "Unix time of the last door opening.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	reg.MustRegister(r.events, r.failures, r.alarmOn, r.doorOpen, r.lastUnlock, r.requests)
	return r
}

func (r *Recorder) LockEvent(e lock.Event) {
	r.events.WithLabelValues(e.Kind.String()).Inc()
	switch e.Kind {
	case lock.VerifyFailed:
		r.failures.WithLabelValues(e.Context.String(), attemptLabel(e.Attempt)).Inc()
	case lock.AlarmRaised:
		r.alarmOn.Set(1)
	case lock.AlarmCleared:
		r.alarmOn.Set(0)
	case lock.DoorOpening:
		r.doorOpen.Set(1)
		r.lastUnlock.Set(float64(e.Time.UnixNano()) / 1e9)
	case lock.DoorClosed:
		r.doorOpen.Set(0)
	}
}

func (r *Recorder) ObserveHTTP(method, path string, status int, d time.Duration) {
	r.requests.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}

func attemptLabel(n int) string {
	switch n {
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3"
	}
	return "other"
}
