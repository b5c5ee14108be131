package input

import (
	"math"
	"regexp"
)

// DeviceClass is the coarse device family used for sensitivity and camera setup
type DeviceClass int

const (
	Desktop DeviceClass = iota
	Tablet
	Mobile
)

func (c DeviceClass) String() string {
	switch c {
	case Mobile:
		return "mobile"
	case Tablet:
		return "tablet"
	default:
		return "desktop"
	}
}

// Orientation of the viewport
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

var (
	mobileUA = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)
	tabletUA = regexp.MustCompile(`(?i)iPad|Android.*Tablet`)
)

// DeviceProfile is computed once per resize and passed down to everything
// that used to branch on mobile vs desktop.
type DeviceProfile struct {
	Class            DeviceClass `json:"class"`
	Width            int         `json:"width"`
	Height           int         `json:"height"`
	Orientation      Orientation `json:"orientation"`
	FOV              float64     `json:"fov"`
	CameraDistance   float64     `json:"cameraDistance"`
	TouchSensitivity float64     `json:"touchSensitivity"`
	WheelSensitivity float64     `json:"wheelSensitivity"`
	PixelRatio       float64     `json:"pixelRatio"`
}

// DetectProfile classifies the viewport. Width below 768 is mobile,
// 768..1023 is tablet, regardless of the user agent.
func DetectProfile(userAgent string, width, height int, devicePixelRatio float64) DeviceProfile {
	class := Desktop
	switch {
	case mobileUA.MatchString(userAgent) && !tabletUA.MatchString(userAgent), width > 0 && width < 768:
		class = Mobile
	case tabletUA.MatchString(userAgent), width >= 768 && width < 1024:
		class = Tablet
	}

	if devicePixelRatio <= 0 || math.IsNaN(devicePixelRatio) {
		devicePixelRatio = 1
	}

	p := DeviceProfile{
		Class:       class,
		Width:       width,
		Height:      height,
		Orientation: Landscape,
		PixelRatio:  devicePixelRatio,
	}
	if height > width {
		p.Orientation = Portrait
	}

	switch class {
	case Mobile:
		p.FOV = 110
		p.CameraDistance = 5
		p.TouchSensitivity = 0.008
		p.WheelSensitivity = 0.0032
		p.PixelRatio = math.Min(devicePixelRatio, 2)
	case Tablet:
		p.FOV = 70
		p.CameraDistance = 8
		p.TouchSensitivity = 0.006
		p.WheelSensitivity = 0.0024
	default:
		p.FOV = 60
		p.CameraDistance = 10
		p.TouchSensitivity = 0.005
		p.WheelSensitivity = 0.002
	}

	return p
}

// Aspect returns width/height, or 1 for an unsized viewport
func (p DeviceProfile) Aspect() float64 {
	if p.Width <= 0 || p.Height <= 0 {
		return 1
	}
	return float64(p.Width) / float64(p.Height)
}
