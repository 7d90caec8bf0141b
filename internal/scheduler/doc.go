// Package scheduler refreshes exported report files on a cron schedule while
// the HTTP server runs.
//
// The schedule uses a six-field cron expression with a leading seconds field,
// or a descriptor such as "@daily" or "@every 6h". Each tick generates the
// configured report and writes it to every output path. Overlapping ticks are
// skipped and a failed tick only updates the status reported by /api/health.
package scheduler
