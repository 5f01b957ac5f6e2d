package api

// Tick runs one scheduled reconciliation outside the cron runner.
func (s *Scheduler) Tick() { s.tick() }
