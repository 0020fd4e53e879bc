package swan

// Foreach is a divide-and-conquer parallel-for over [begin, end): it
// recursively bisects the range via Spawn until a half falls at or under
// grain, then runs that half's iterations directly (no per-iteration
// frame), and finally Syncs on the spawned half. grain <= 0 is treated as 1.
func Foreach(t *T, begin, end, grain int, fn func(*T, int)) {
	if grain <= 0 {
		grain = 1
	}
	foreach(t, begin, end, grain, fn)
}

func foreach(t *T, begin, end, grain int, fn func(*T, int)) {
	if end-begin <= grain {
		for i := begin; i < end; i++ {
			fn(t, i)
		}
		return
	}
	mid := begin + (end-begin)/2
	t.Spawn("foreach-lo", nil, func(ct *T) { foreach(ct, begin, mid, grain, fn) })
	foreach(t, mid, end, grain, fn)
	t.Sync()
}
