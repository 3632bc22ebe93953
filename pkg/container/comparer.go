package container

import "cmp"

// Comparer orders pooled values for the Prioritized container.
//
// Compare returns a positive result when a is better than b, negative when a
// is worse, and zero when they are equivalent. stopHere reports that a is good
// enough for the scan to stop and claim it. The first candidate of a scan is
// compared with itself so an early stop can trigger on it. Compare must be
// safe for concurrent use and must not mutate shared state.
type Comparer[T any] interface {
	Compare(a, b T) (result int, stopHere bool)
}

// ComparerFunc adapts a function to the Comparer interface.
type ComparerFunc[T any] func(a, b T) (int, bool)

// Compare calls f(a, b).
func (f ComparerFunc[T]) Compare(a, b T) (int, bool) { return f(a, b) }

// ByKey orders values by an extracted key, higher keys being better. It never
// requests an early stop.
func ByKey[T any, K cmp.Ordered](key func(T) K) Comparer[T] {
	return ComparerFunc[T](func(a, b T) (int, bool) {
		return cmp.Compare(key(a), key(b)), false
	})
}

// ByKeyWithThreshold is ByKey with an early stop on any value whose key is at
// least goodEnough.
func ByKeyWithThreshold[T any, K cmp.Ordered](key func(T) K, goodEnough K) Comparer[T] {
	return ComparerFunc[T](func(a, b T) (int, bool) {
		ka := key(a)
		return cmp.Compare(ka, key(b)), ka >= goodEnough
	})
}
