// Package ui renders git lifecycle events as console progress lines.
package ui
