package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// and how to interpret results.

func describeAnalyzeDiff() string {
	return `Analyzes a change set between two git refs (or a raw unified diff) and reports risk findings and aggregated flags.

USE WHEN:
- Reviewing a pull request or commit range for risky changes
- Deciding how much scrutiny a change set deserves
- Checking whether dependency manifests changed between two refs
- Triaging a large change by which files carry most of it

INTERPRETING RESULTS:
- Findings are discrete observations (dependency-change, large-change) with stable IDs: the same change yields the same ID across runs
- Flags aggregate related findings under a rule key and carry a score in [0, 1]
- Score >= 0.7: high risk, review carefully
- Score 0.4-0.7: moderate risk
- Confidence is the mean analyzer certainty behind the flag
- Warnings list degradations (e.g. cache write failures); results are still complete when present

METRICS RETURNED:
- Findings: kind, confidence, evidence (file, excerpt), kind-specific detail
- Flags: rule key, score, confidence, related finding IDs
- Summary: totals, max/p50/p95 flag scores
- Cache: hits, misses, hit rate for the run`
}

func describeCacheStats() string {
	return `Reports statistics for the analysis cache of a repository.

USE WHEN:
- Checking whether repeated analyses are being served from cache
- Sizing the cache before pruning or clearing it
- Debugging unexpectedly slow analyze_diff calls

INTERPRETING RESULTS:
- Hit rate near 1.0 means repeated runs cost almost nothing
- Entries and size_bytes grow with distinct (analyzer, change set) pairs
- A persistently zero hit rate usually means the inputs differ between runs or the cache is disabled

METRICS RETURNED:
- hits, misses, entries, size_bytes, hit_rate`
}
