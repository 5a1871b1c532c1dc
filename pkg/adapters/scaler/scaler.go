// Package scaler fits source images to session dimensions before encoding.
package scaler

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/user/h264session/pkg/settings"
)

// Scale draws src into dst according to mode.
//
// Normal and CropSourceToCleanAperture stretch the whole source. Trim crops
// the source to the destination aspect ratio and fills dst. Letterbox fits
// the whole source inside dst and pads with black.
func Scale(dst *image.RGBA, src image.Image, mode settings.ScalingMode) {
	db := dst.Bounds()
	sb := src.Bounds()
	if sb.Dx() == db.Dx() && sb.Dy() == db.Dy() {
		draw.Copy(dst, db.Min, src, sb, draw.Src, nil)
		return
	}

	switch mode {
	case settings.ScalingTrim:
		draw.ApproxBiLinear.Scale(dst, db, src, trimRect(sb, db.Dx(), db.Dy()), draw.Src, nil)
	case settings.ScalingLetterbox:
		draw.Draw(dst, db, image.NewUniform(color.Black), image.Point{}, draw.Src)
		draw.ApproxBiLinear.Scale(dst, letterboxRect(db, sb.Dx(), sb.Dy()), src, sb, draw.Src, nil)
	default:
		draw.ApproxBiLinear.Scale(dst, db, src, sb, draw.Src, nil)
	}
}

// trimRect returns the centered part of src with the aspect ratio w:h.
func trimRect(src image.Rectangle, w, h int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	if sw*h > sh*w {
		// Source is wider: crop left and right.
		cw := sh * w / h
		x := src.Min.X + (sw-cw)/2
		return image.Rect(x, src.Min.Y, x+cw, src.Max.Y)
	}
	ch := sw * h / w
	y := src.Min.Y + (sh-ch)/2
	return image.Rect(src.Min.X, y, src.Max.X, y+ch)
}

// letterboxRect returns the largest centered rectangle inside dst with the
// aspect ratio sw:sh.
func letterboxRect(dst image.Rectangle, sw, sh int) image.Rectangle {
	dw, dh := dst.Dx(), dst.Dy()
	if sw*dh > sh*dw {
		h := dw * sh / sw
		y := dst.Min.Y + (dh-h)/2
		return image.Rect(dst.Min.X, y, dst.Max.X, y+h)
	}
	w := dh * sw / sh
	x := dst.Min.X + (dw-w)/2
	return image.Rect(x, dst.Min.Y, x+w, dst.Max.Y)
}
