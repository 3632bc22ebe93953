// Package maintenance runs periodic upkeep of pools on cron schedules.
//
// A Scheduler wraps robfig/cron. The usual jobs rescan a pool so that idle
// elements that went bad are destroyed, and trim a dynamic pool back towards
// its minimum size:
//
//	s, _ := maintenance.New(maintenance.Config{Name: "db"})
//	s.RegisterRescan("db-rescan", "*/30 * * * * *", dbPool)
//	s.RegisterTrim("db-trim", "@every 5m", dbPool, 4)
//	s.Start()
//	defer func() { <-s.Stop() }()
//
// Overlapping runs of the same job are skipped and panics are recovered.
package maintenance
