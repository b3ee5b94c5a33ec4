//go:build !simdebug

package sim

const debugAsserts = false
