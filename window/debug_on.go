//go:build arcdebug

package window

const debugAssertions = true
