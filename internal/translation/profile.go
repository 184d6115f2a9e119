package translation

import (
	"fmt"
	"strings"
	"time"
)

// Profile trades latency against accuracy for the remote tier.
type Profile string

const (
	// ProfileInstant answers from local tiers only.
	ProfileInstant Profile = "instant"
	// ProfileOptimized uses a short remote timeout and at most one retry.
	ProfileOptimized Profile = "optimized"
	// ProfileHybrid is the default balance.
	ProfileHybrid Profile = "hybrid"
	// ProfileEnhanced prefers the remote translation over phrase substitution.
	ProfileEnhanced Profile = "enhanced"
)

type profileSettings struct {
	remote     bool
	phrases    bool
	timeout    time.Duration
	maxRetries int
}

var profiles = map[Profile]profileSettings{
	ProfileInstant:   {remote: false, phrases: true},
	ProfileOptimized: {remote: true, phrases: true, timeout: 3 * time.Second, maxRetries: 1},
	ProfileHybrid:    {remote: true, phrases: true, timeout: 5 * time.Second},
	ProfileEnhanced:  {remote: true, phrases: false, timeout: 10 * time.Second},
}

// ParseProfile accepts a profile name; empty selects ProfileHybrid.
func ParseProfile(raw string) (Profile, error) {
	name := Profile(strings.ToLower(strings.TrimSpace(raw)))
	if name == "" {
		return ProfileHybrid, nil
	}
	if _, ok := profiles[name]; !ok {
		return "", fmt.Errorf("unknown translation profile %q (want instant, optimized, hybrid or enhanced)", raw)
	}
	return name, nil
}

func (p Profile) settings() profileSettings {
	if s, ok := profiles[p]; ok {
		return s
	}
	return profiles[ProfileHybrid]
}
