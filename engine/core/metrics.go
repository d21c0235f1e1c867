package core

import "sync"

// Number of frames the frame time is averaged over.
const AVG_COUNT uint8 = 30

/** @brief Point in time view of the frame statistics. */
type FrameStats struct {
	FPS         float64
	FrameTimeMS float64
	TotalFrames uint64
}

type metricsState struct {
	mutex sync.RWMutex

	frameAVGCounter    uint8
	msTimes            [AVG_COUNT]float64
	msAVG              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
	totalFrames        uint64
}

var metrics = &metricsState{}

// MetricsInitialize clears every statistic. Each engine calls it once at startup.
func MetricsInitialize() error {
	metrics.mutex.Lock()
	defer metrics.mutex.Unlock()
	metrics.frameAVGCounter = 0
	metrics.msTimes = [AVG_COUNT]float64{}
	metrics.msAVG = 0
	metrics.frames = 0
	metrics.accumulatedFrameMS = 0
	metrics.fps = 0
	metrics.totalFrames = 0
	return nil
}

// MetricsUpdate records one frame. frameElapsedTime is in seconds.
func MetricsUpdate(frameElapsedTime float64) {
	metrics.mutex.Lock()
	defer metrics.mutex.Unlock()

	// rolling frame time average, refreshed once the window is full
	frameMS := frameElapsedTime * 1000.0
	metrics.msTimes[metrics.frameAVGCounter] = frameMS
	if metrics.frameAVGCounter == AVG_COUNT-1 {
		var sum float64
		for _, ms := range metrics.msTimes {
			sum += ms
		}
		metrics.msAVG = sum / float64(AVG_COUNT)
	}
	metrics.frameAVGCounter = (metrics.frameAVGCounter + 1) % AVG_COUNT

	// frames counted during the last full second
	metrics.accumulatedFrameMS += frameMS
	if metrics.accumulatedFrameMS > 1000 {
		metrics.fps = float64(metrics.frames)
		metrics.accumulatedFrameMS -= 1000
		metrics.frames = 0
	}

	metrics.frames++
	metrics.totalFrames++
}

// MetricsFrame returns the frames per second and the average frame time in ms.
func MetricsFrame() (float64, float64) {
	metrics.mutex.RLock()
	defer metrics.mutex.RUnlock()
	return metrics.fps, metrics.msAVG
}

func MetricsSnapshot() FrameStats {
	metrics.mutex.RLock()
	defer metrics.mutex.RUnlock()
	return FrameStats{
		FPS:         metrics.fps,
		FrameTimeMS: metrics.msAVG,
		TotalFrames: metrics.totalFrames,
	}
}
