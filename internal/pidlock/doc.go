// Package pidlock provides PID-file based cross-process mutual
// exclusion.
//
// A Lock owns a plain-text file <name>.lock whose entire content is the
// decimal PID of the current holder. Acquisition treats a file whose
// recorded process is dead (stale) or whose content does not parse
// (corrupt) as free and overwrites it.
//
// The lock is advisory and single-host: it coordinates well-behaved
// processes on one machine through the filesystem, nothing more. PID
// reuse inside the staleness-detection window is an accepted, rare
// false-positive.
//
// # Usage
//
//	lock := pidlock.New("showrunner", cfg.Lock.Dir)
//	if err := lock.Acquire(); err != nil {
//	    return err // another instance is running
//	}
//	defer lock.Release()
//
// Release on every exit path is the caller's responsibility (defer it
// next to Acquire). Go has no reliable destructor to fall back on; a
// crashed holder is recovered by the next acquirer's staleness check.
package pidlock
