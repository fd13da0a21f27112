// Package video models catalog entries and their transcription lifecycle.
//
// Status values are owned by the remote service: a video moves from pending to
// processing and ends either completed or failed. This package never advances
// a status; it only interprets whatever the latest list fetch reported. The
// Resolve function maps any status string, including values the service may
// add later, onto one of four display categories with pending as the default
// arm.
//
// Display helpers (transcription panel, failure notice, confidence percent,
// created date) live here so every surface renders a video the same way.
// Control decisions use raw status equality through the Video methods, never
// the resolved badge.
package video
