// Package memory sets the Go soft memory limit for container deployments.
//
// Go does not derive GOMEMLIMIT from cgroup limits. When the container limit
// is passed in through the Downward API, [ConfigureFromEnv] sets the heap
// limit to a share of it, leaving headroom for libvips allocations:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.6"
//
// An explicit GOMEMLIMIT always wins.
package memory
