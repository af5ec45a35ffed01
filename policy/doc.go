// Package policy decides which replica a chorus client talks to.
//
// # Failover
//
// [RandomFailover] turns a health check result into an active host:
//
//	selector := policy.NewRandomFailover()
//	result := checker.Check(ctx, hosts, 2*time.Second)
//	host, err := selector.Select(result, true)
//	if errors.Is(err, types.ErrClusterUnavailable) {
//	    // every replica is down
//	}
//
// Selection among reachable hosts is uniformly random. Tests inject a
// deterministic [RandomSource]:
//
//	selector := policy.NewRandomFailover(
//	    policy.WithRandomSource(rand.New(rand.NewPCG(1, 2))),
//	)
//
// A health check over a single host never draws from the source: that host is
// returned directly. Passing allowSwitch=false keeps the current active host,
// which is how read-only probes avoid moving the client.
package policy
