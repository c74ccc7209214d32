// Package lock keeps two reconciliation runs from working on the same index
// at once.
//
// The key is the absolute index root. FileLocker uses flock(2) and is enough
// for cron jobs on a single host; RedisLocker covers several hosts writing to
// one shared MySQL index. Both fail fast with ErrLocked instead of queueing.
package lock
