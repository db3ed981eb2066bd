// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package metric

import "sync"

var introspectionFactory = sync.OnceValue(func() *Factory {
	return NewDefaultFactory(NewConfig(), nil)
})

// Introspection returns a single optional process-wide gauge factory for
// library-internal introspection. It is constructed on first use and never
// reclaimed; sync.OnceValue is the direct idiom for a lazy-initialized
// singleton that would otherwise need an atomic pointer swap guard.
func Introspection() *Factory {
	return introspectionFactory()
}
