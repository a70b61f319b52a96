package device

// Resolve applies the override chain: the device override if set, else the
// shared team default if set, else the hardcoded fallback.
func Resolve[T any](override, shared *T, fallback T) T {
	if override != nil {
		return *override
	}
	if shared != nil {
		return *shared
	}
	return fallback
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
