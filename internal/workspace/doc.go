// Package workspace manages the checkout directories used when fetching
// remote sources, supporting both ephemeral (timestamped) and persistent
// (fixed-path) modes.
//
// Ephemeral mode creates timestamped directories (e.g., docsmith-20260825-122336)
// suitable for one-shot builds, cleaning up completely after use.
//
// Persistent mode uses a fixed directory path that survives across builds,
// letting serve mode pull incrementally instead of recloning.
package workspace
