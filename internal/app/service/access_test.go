package service

import (
	"testing"

	"intervue/internal/domain/model"

	"github.com/stretchr/testify/assert"
)

func TestCanRead(t *testing.T) {
	owner := &model.Actor{ID: "owner", Role: model.RoleUser}
	stranger := &model.Actor{ID: "stranger", Role: model.RoleUser}

	tests := []struct {
		name   string
		viewer *model.Actor
		status model.ExperienceStatus
		want   bool
	}{
		{"anonymous sees approved", nil, model.StatusApproved, true},
		{"anonymous blocked from pending", nil, model.StatusPending, false},
		{"anonymous blocked from rejected", nil, model.StatusRejected, false},
		{"stranger sees approved", stranger, model.StatusApproved, true},
		{"stranger blocked from pending", stranger, model.StatusPending, false},
		{"stranger blocked from rejected", stranger, model.StatusRejected, false},
		{"owner sees approved", owner, model.StatusApproved, true},
		{"owner sees own pending", owner, model.StatusPending, true},
		{"owner sees own rejected", owner, model.StatusRejected, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := &model.Experience{ID: "e1", UserID: "owner", Status: tt.status}
			assert.Equal(t, tt.want, CanRead(tt.viewer, exp))
		})
	}
}

func TestCanWrite(t *testing.T) {
	exp := &model.Experience{ID: "e1", UserID: "owner", Status: model.StatusPending}

	assert.True(t, CanWrite(model.Actor{ID: "owner", Role: model.RoleUser}, exp))
	assert.False(t, CanWrite(model.Actor{ID: "stranger", Role: model.RoleUser}, exp))
	// Admin status does not grant ordinary edit rights.
	assert.False(t, CanWrite(model.Actor{ID: "admin", Role: model.RoleAdmin}, exp))
}
