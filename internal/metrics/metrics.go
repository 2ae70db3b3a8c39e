package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	KeysGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "license_keys_generated_total",
		Help: "Number of license keys generated.",
	})

	KeysRevoked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "license_keys_revoked_total",
		Help: "Number of license keys revoked.",
	})

	DownloadsGranted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "license_downloads_granted_total",
		Help: "Number of download attempts that passed quota enforcement.",
	})

	DownloadsDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "license_downloads_denied_total",
		Help: "Number of download attempts denied, by reason.",
	}, []string{"reason"})
)
