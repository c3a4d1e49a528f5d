//go:build searchdebug

package bot

// Built with -tags searchdebug, search panics on broken invariants instead of
// scoring them as neutral.
const debugAssertions = true
