// Package all registers every built-in eviction policy. Import it for its
// side effects when constructing caches by name:
//
//	import _ "github.com/IvanBrykalov/tracesim/policy/all"
package all

import (
	_ "github.com/IvanBrykalov/tracesim/policy/arc"
	_ "github.com/IvanBrykalov/tracesim/policy/belady"
	_ "github.com/IvanBrykalov/tracesim/policy/car"
	_ "github.com/IvanBrykalov/tracesim/policy/clock"
	_ "github.com/IvanBrykalov/tracesim/policy/fifo"
	_ "github.com/IvanBrykalov/tracesim/policy/lfu"
	_ "github.com/IvanBrykalov/tracesim/policy/lirs"
	_ "github.com/IvanBrykalov/tracesim/policy/lru"
	_ "github.com/IvanBrykalov/tracesim/policy/random"
	_ "github.com/IvanBrykalov/tracesim/policy/s3fifo"
	_ "github.com/IvanBrykalov/tracesim/policy/sieve"
	_ "github.com/IvanBrykalov/tracesim/policy/slru"
	_ "github.com/IvanBrykalov/tracesim/policy/twoq"
)
