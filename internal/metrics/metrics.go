package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Commands         *prometheus.CounterVec
	AutoBans         prometheus.Counter
	VoiceEvents      *prometheus.CounterVec
	NoticeSuppressed prometheus.Counter
	OwnerResolutions *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voiceguard",
			Name:      "commands_total",
			Help:      "Chat commands seen in the owned voice channel, by verb and outcome.",
		}, []string{"verb", "outcome"}),
		AutoBans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voiceguard",
			Name:      "auto_bans_total",
			Help:      "Ban commands issued for blocked users joining the owned channel.",
		}),
		VoiceEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voiceguard",
			Name:      "voice_events_total",
			Help:      "Join and leave events recorded by the voice event tracker.",
		}, []string{"kind"}),
		NoticeSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voiceguard",
			Name:      "notices_suppressed_total",
			Help:      "Notices dropped by the notification cooldown.",
		}),
		OwnerResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "voiceguard",
			Name:      "owner_resolutions_total",
			Help:      "Ownership lookups by the evidence source that answered.",
		}, []string{"source"}),
	}
	reg.MustRegister(m.Commands, m.AutoBans, m.VoiceEvents, m.NoticeSuppressed, m.OwnerResolutions)
	return m
}
