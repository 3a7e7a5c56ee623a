package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEffectiveStatus(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		status string
		end    time.Time
		want   string
	}{
		{"active before end", GroupBuyStatusActive, now.Add(time.Hour), GroupBuyStatusActive},
		{"active past end reads cancelled", GroupBuyStatusActive, now.Add(-time.Hour), GroupBuyStatusCancelled},
		{"completed stays completed past end", GroupBuyStatusCompleted, now.Add(-time.Hour), GroupBuyStatusCompleted},
		{"cancelled stays cancelled", GroupBuyStatusCancelled, now.Add(time.Hour), GroupBuyStatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GroupBuy{Status: tt.status, EndDate: tt.end}
			assert.Equal(t, tt.want, g.EffectiveStatus(now))
		})
	}
}

func TestFull(t *testing.T) {
	g := GroupBuy{MaxParticipants: 2, CurrentParticipants: 1}
	assert.False(t, g.Full())

	g.CurrentParticipants = 2
	assert.True(t, g.Full())
}

func TestExpiredUnfilled(t *testing.T) {
	now := time.Now()

	base := GroupBuy{
		Status:              GroupBuyStatusActive,
		MinParticipants:     3,
		MaxParticipants:     10,
		CurrentParticipants: 1,
		EndDate:             now.Add(-time.Minute),
	}
	assert.True(t, base.ExpiredUnfilled(now))

	stillRunning := base
	stillRunning.EndDate = now.Add(time.Minute)
	assert.False(t, stillRunning.ExpiredUnfilled(now))

	reachedMin := base
	reachedMin.CurrentParticipants = 3
	assert.False(t, reachedMin.ExpiredUnfilled(now))

	alreadyDone := base
	alreadyDone.Status = GroupBuyStatusCompleted
	assert.False(t, alreadyDone.ExpiredUnfilled(now))
}

func TestCreateGroupBuyRequestValidate(t *testing.T) {
	now := time.Now()

	valid := CreateGroupBuyRequest{
		ProductID:       1,
		DiscountPrice:   decimal.RequireFromString("9.99"),
		MinParticipants: 2,
		MaxParticipants: 5,
		StartDate:       now,
		EndDate:         now.Add(24 * time.Hour),
	}
	assert.NoError(t, valid.Validate())

	zeroMin := valid
	zeroMin.MinParticipants = 0
	assert.Error(t, zeroMin.Validate())

	maxBelowMin := valid
	maxBelowMin.MaxParticipants = 1
	assert.Error(t, maxBelowMin.Validate())

	freeDiscount := valid
	freeDiscount.DiscountPrice = decimal.Zero
	assert.Error(t, freeDiscount.Validate())

	endsBeforeStart := valid
	endsBeforeStart.EndDate = now.Add(-time.Hour)
	assert.Error(t, endsBeforeStart.Validate())
}

func TestValidOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "processing", "shipped", "delivered", "cancelled"} {
		assert.True(t, ValidOrderStatus(s), s)
	}
	assert.False(t, ValidOrderStatus("confirmed"))
	assert.False(t, ValidOrderStatus(""))
}
