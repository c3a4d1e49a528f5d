//go:build !searchdebug

package bot

const debugAssertions = false
