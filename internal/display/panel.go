// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package display renders readings as a small monochrome text panel, the
// size of a 128x64 OLED.
package display

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/inertial_simulator/internal/imu"
)

const (
	Width  = 128
	Height = 64

	lineHeight = 13
)

// Panel contents.
const (
	ContentAccelerometer = "accelerometer"
	ContentGyroscope     = "gyroscope"
	ContentMagnetometer  = "magnetometer"
	ContentOrientation   = "orientation"
	ContentSplash        = "splash"
)

var ErrUnknownContent = errors.New("unknown display content")

// Lines returns the text shown for content. have is false until the first
// reading arrives.
func Lines(content string, r imu.Reading, have bool) ([]string, error) {
	switch content {
	case ContentAccelerometer:
		if !have {
			return waiting("Accel m/s2"), nil
		}
		a := r.Accelerometer
		return []string{"Accel m/s2", line("X", a.X), line("Y", a.Y), line("Z", a.Z)}, nil

	case ContentGyroscope:
		if !have {
			return waiting("Gyro rad/s"), nil
		}
		g := r.Gyroscope
		return []string{"Gyro rad/s", line("P", g.Pitch), line("Y", g.Yaw), line("R", g.Roll)}, nil

	case ContentMagnetometer:
		if !have {
			return waiting("Mag uT"), nil
		}
		m := r.Magnetometer
		return []string{"Mag uT", line("X", m.X), line("Y", m.Y), line("Z", m.Z)}, nil

	case ContentOrientation:
		if !have {
			return waiting("Orientation"), nil
		}
		p := r.Orientation
		return []string{
			fmt.Sprintf("R: %6.1f", p.Roll),
			fmt.Sprintf("P: %6.1f", p.Pitch),
			fmt.Sprintf("Y: %6.1f", p.Yaw),
		}, nil

	case ContentSplash:
		return []string{"", "Inertial Sim", "accel gyro mag"}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownContent, content)
	}
}

// Render draws the panel for content.
func Render(content string, r imu.Reading, have bool) (*image.Gray, error) {
	lines, err := Lines(content, r, have)
	if err != nil {
		return nil, err
	}

	img := image.NewGray(image.Rect(0, 0, Width, Height))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 0xff}),
		Face: basicfont.Face7x13,
	}
	for i, text := range lines {
		drawer.Dot = fixed.P(0, (i+1)*lineHeight)
		drawer.DrawString(text)
	}

	return img, nil
}

// WritePNG renders the panel for content as PNG.
func WritePNG(w io.Writer, content string, r imu.Reading, have bool) error {
	img, err := Render(content, r, have)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func line(axis string, v float64) string {
	return fmt.Sprintf("%s: %8.2f", axis, v)
}

func waiting(title string) []string {
	return []string{"", title, "Waiting..."}
}
