package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ApplicationMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "job_board_application_mutations_total",
		Help: "Create, update and delete operations on applications by result",
	}, []string{"operation", "result"})

	BoardLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "job_board_page_loads_total",
		Help: "Board list loads (mount and reload) by result",
	}, []string{"result"})

	ActiveBoardSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "job_board_active_sessions",
		Help: "Board sessions currently held in memory",
	})

	EmailSyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "job_board_email_sync_runs_total",
		Help: "Mail watcher sync cycles by mode and result",
	}, []string{"mode", "result"})

	EmailStatusUpdates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "job_board_email_status_updates_total",
		Help: "Application status changes applied from email",
	})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
