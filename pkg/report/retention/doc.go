// Package retention prunes stored reports by age and by count, optionally
// archiving them to JSON first, on a robfig/cron schedule.
package retention
