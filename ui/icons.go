package ui

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"

	"github.com/yllada/tunnel-tray/common"
)

// IconConfig defines the configuration for icon generation.
type IconConfig struct {
	Size        int
	FillColor   color.RGBA
	BorderColor color.RGBA
	TunnelColor color.RGBA
	// Crossed draws a diagonal bar over the tunnel mouth.
	Crossed bool
}

// ConnectedIconConfig returns the config for the connected state.
func ConnectedIconConfig() IconConfig {
	return IconConfig{
		Size:        common.TrayIconSize,
		FillColor:   color.RGBA{46, 125, 50, 255},   // Dark green
		BorderColor: color.RGBA{129, 199, 132, 255}, // Light green
		TunnelColor: color.RGBA{255, 255, 255, 255},
	}
}

// DisconnectedIconConfig returns the config for the disconnected state.
func DisconnectedIconConfig() IconConfig {
	return IconConfig{
		Size:        common.TrayIconSize,
		FillColor:   color.RGBA{97, 97, 97, 255},    // Dark gray
		BorderColor: color.RGBA{189, 189, 189, 255}, // Light gray
		TunnelColor: color.RGBA{224, 224, 224, 255},
		Crossed:     true,
	}
}

// RenderIcon draws a round badge with a tunnel arch and returns it as PNG.
func RenderIcon(cfg IconConfig) []byte {
	size := cfg.Size
	img := image.NewRGBA(image.Rect(0, 0, size, size))

	center := float64(size) / 2
	radius := center - 0.5

	// Arch: a half-disc on top of a rectangle, open at the bottom.
	archHalf := float64(size) * 0.25
	archTop := float64(size) * 0.3
	archBottom := float64(size) * 0.78
	inArch := func(x, y float64) bool {
		if x < center-archHalf || x > center+archHalf || y > archBottom {
			return false
		}
		arcCenter := archTop + archHalf
		if y >= arcCenter {
			return true
		}
		return math.Hypot(x-center, y-arcCenter) <= archHalf
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			fx, fy := float64(x)+0.5, float64(y)+0.5
			d := math.Hypot(fx-center, fy-center)
			switch {
			case d > radius:
				continue
			case d > radius-1.5:
				img.Set(x, y, cfg.BorderColor)
			case inArch(fx, fy):
				img.Set(x, y, cfg.TunnelColor)
			default:
				img.Set(x, y, cfg.FillColor)
			}
		}
	}

	if cfg.Crossed {
		for i := 3; i < size-3; i++ {
			img.Set(i, size-1-i, cfg.BorderColor)
			img.Set(i+1, size-1-i, cfg.BorderColor)
		}
	}

	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

var (
	iconsOnce        sync.Once
	iconConnected    []byte
	iconDisconnected []byte
)

// IconForState returns the tray icon for state.
func IconForState(state common.ConnectionState) []byte {
	iconsOnce.Do(func() {
		iconConnected = RenderIcon(ConnectedIconConfig())
		iconDisconnected = RenderIcon(DisconnectedIconConfig())
	})
	if state == common.StateConnected {
		return iconConnected
	}
	return iconDisconnected
}
