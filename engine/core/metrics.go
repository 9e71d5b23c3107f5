package core

const avgCount = 30

// FrameStats carries the per-frame counters the renderer reports back
// after recording a frame.
type FrameStats struct {
	DrawCalls     int
	Triangles     int
	CulledObjects int
	SceneUpdateMS float64
	DrawRecordMS  float64
}

// Metrics tracks a rolling frame-time average and frames per second.
// One instance is owned by the engine; it is not safe for concurrent use.
type Metrics struct {
	frameAvgCounter    int
	msTimes            [avgCount]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64

	lastFrame FrameStats
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Update(frameElapsedTime float64) {
	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAvgCounter] = frameMS
	if m.frameAvgCounter == avgCount-1 {
		sum := 0.0
		for i := 0; i < avgCount; i++ {
			sum += m.msTimes[i]
		}
		m.msAvg = sum / float64(avgCount)
	}
	m.frameAvgCounter++
	m.frameAvgCounter %= avgCount

	// Calculate frames per second.
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	// Count all frames.
	m.frames++
}

// RecordFrame stores the renderer counters for the frame just drawn.
func (m *Metrics) RecordFrame(stats FrameStats) {
	m.lastFrame = stats
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}

func (m *Metrics) Frame() (float64, float64) {
	return m.fps, m.msAvg
}

func (m *Metrics) LastFrame() FrameStats {
	return m.lastFrame
}
