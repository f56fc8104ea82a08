package util

// Keys maps every element to its key, keeping order.
func Keys[T any, K any](in []T, key func(T) K) []K {
	out := make([]K, 0, len(in))
	for _, v := range in {
		out = append(out, key(v))
	}
	return out
}
