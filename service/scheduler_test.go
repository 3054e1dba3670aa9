package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestWithinWindow(t *testing.T) {
	assert.True(t, withinWindow(at(9, 0), "09:00", "21:00"), "open bound is inclusive")
	assert.True(t, withinWindow(at(12, 30), "09:00", "21:00"))
	assert.False(t, withinWindow(at(21, 0), "09:00", "21:00"), "close bound is exclusive")
	assert.False(t, withinWindow(at(8, 59), "09:00", "21:00"))
	assert.False(t, withinWindow(at(23, 0), "09:00", "21:00"))
}

func TestWithinWindow_WrapsPastMidnight(t *testing.T) {
	assert.True(t, withinWindow(at(23, 0), "22:00", "02:00"))
	assert.True(t, withinWindow(at(1, 0), "22:00", "02:00"))
	assert.False(t, withinWindow(at(12, 0), "22:00", "02:00"))
	assert.False(t, withinWindow(at(2, 0), "22:00", "02:00"))
}

func TestWithinWindow_UnparsableBoundsStayOpen(t *testing.T) {
	assert.True(t, withinWindow(at(3, 0), "bogus", "21:00"))
	assert.True(t, withinWindow(at(3, 0), "09:00", "bogus"))
}

func TestWithdrawWindow_SetReportsTransitions(t *testing.T) {
	var window WithdrawWindow

	assert.False(t, window.IsOpen())
	assert.True(t, window.set(true), "closed to open is a transition")
	assert.True(t, window.IsOpen())
	assert.False(t, window.set(true), "open to open is not")
	assert.True(t, window.set(false))
	assert.False(t, window.IsOpen())
}
