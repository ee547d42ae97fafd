package canvas

const (
	DefaultZoom = 1.0
	MinZoom     = 0.1
	MaxZoom     = 4.0
)

// ZoomLevels is the ladder walked by ZoomIn / ZoomOut.
var ZoomLevels = []float64{0.1, 0.25, 0.5, 0.75, 1, 1.25, 1.5, 2, 3, 4}

func clampZoom(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}

	return zoom
}

// nextZoomLevel returns the first ladder entry above zoom (zoom itself at the top).
func nextZoomLevel(zoom float64) float64 {
	for _, level := range ZoomLevels {
		if level > zoom {
			return level
		}
	}

	return zoom
}

// prevZoomLevel returns the last ladder entry below zoom (zoom itself at the bottom).
func prevZoomLevel(zoom float64) float64 {
	for i := len(ZoomLevels) - 1; i >= 0; i-- {
		if ZoomLevels[i] < zoom {
			return ZoomLevels[i]
		}
	}

	return zoom
}
