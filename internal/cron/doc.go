// Package cron parses crontab entries and simulates which of them fire
// over a window of calendar time.
//
// Each entry has five time fields followed by a command:
//
//	┌───────────── minute (0-59)
//	│ ┌───────────── hour (0-23)
//	│ │ ┌───────────── day of month (1-31)
//	│ │ │ ┌───────────── month (1-12 or jan-dec)
//	│ │ │ │ ┌───────────── day of week (0-7 or sun-sat, 7=Sunday)
//	│ │ │ │ │
//	* * * * * command
//
// Fields accept lists (1,3,5), numeric ranges (1-5), steps (*/15, 1-30/5)
// and the wildcard. Named values are accepted as single values only, so
// "mon-fri" is rejected.
//
// Simulate applies every field with AND semantics, including day of month
// and day of week, and hides rules that fire too often per hour to be
// useful in a listing (see Suppressed).
package cron
