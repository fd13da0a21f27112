// Package catalog owns the list of videos shown to the user and everything
// that hangs off it: the create/edit form, the expanded transcription and
// question panels, and the per-video question controller.
//
// The collection is only ever replaced by a fresh fetch from the video
// service. Create, update, and delete never patch it locally; they refresh
// after the service confirms the change. While a mutation is in flight the
// catalog reports StalePending and rejects further mutations with ErrBusy.
package catalog
