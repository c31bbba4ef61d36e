package service

import "intervue/internal/domain/model"

// CanRead reports whether viewer may see the experience. Approved content is
// public; everything else is visible to its owner only. A denied caller gets
// FORBIDDEN rather than NOT_FOUND, so existence is not hidden.
func CanRead(viewer *model.Actor, exp *model.Experience) bool {
	if exp.Status == model.StatusApproved {
		return true
	}
	return viewer != nil && viewer.ID == exp.UserID
}

// CanWrite reports whether actor may update or delete the experience.
// Ordinary edits are owner-only; the admin override applies to moderation
// actions, not here.
func CanWrite(actor model.Actor, exp *model.Experience) bool {
	return actor.ID == exp.UserID
}
