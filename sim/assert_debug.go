//go:build simdebug

package sim

const debugAsserts = true
