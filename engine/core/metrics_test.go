package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAveragesFrameTime(t *testing.T) {
	m := NewMetrics()

	// A full averaging window of 16ms frames.
	for i := 0; i < avgCount; i++ {
		m.Update(0.016)
	}
	assert.InDelta(t, 16.0, m.FrameTime(), 0.01)
}

func TestMetricsCountsFPS(t *testing.T) {
	m := NewMetrics()

	// 100 frames of 10ms cross the one second mark.
	for i := 0; i < 101; i++ {
		m.Update(0.010)
	}
	assert.InDelta(t, 100, m.FPS(), 1)

	fps, frameMS := m.Frame()
	assert.Equal(t, m.FPS(), fps)
	assert.Equal(t, m.FrameTime(), frameMS)
}

func TestMetricsRecordsLastFrame(t *testing.T) {
	m := NewMetrics()
	stats := FrameStats{DrawCalls: 12, Triangles: 480, CulledObjects: 3, SceneUpdateMS: 0.5, DrawRecordMS: 1.2}
	m.RecordFrame(stats)
	assert.Equal(t, stats, m.LastFrame())
}
