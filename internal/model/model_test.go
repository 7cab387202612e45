package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayStampUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	// 北京时间 8 月 31 日 02:00 仍是 UTC 8 月 30 日
	ts := time.Date(2025, 8, 31, 2, 0, 0, 0, loc)
	require.Equal(t, "20250830", DayStamp(ts))
}

func TestTextLengthCountsRunes(t *testing.T) {
	require.Equal(t, 4, TextLength("领域雷达"))
	require.Equal(t, 5, TextLength("hello"))
}
