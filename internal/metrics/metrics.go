package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Registrations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharestuff_registrations_total",
		Help: "Number of successful user registrations.",
	})

	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharestuff_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharestuff_posts_created_total",
		Help: "Number of posts created.",
	})

	PostsDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharestuff_posts_deleted_total",
		Help: "Number of posts deleted by their owner.",
	})

	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sharestuff_like_toggles_total",
		Help: "Like toggles by resulting state (liked, unliked, self).",
	}, []string{"state"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sharestuff_active_sessions",
		Help: "Sessions currently held by the session store.",
	})

	AvatarRenders = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sharestuff_avatar_renders_total",
		Help: "Avatars drawn and written to storage.",
	})
)
