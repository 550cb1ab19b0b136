package recognition

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Preprocessing parameters, tuned against real gate footage.
const (
	bilateralRadius     = 5
	bilateralSigmaColor = 17.0
	bilateralSigmaSpace = 17.0
	threshBlockSize     = 35
	threshOffset        = 15
	closeKernelSize     = 2
	dilateKernelSize    = 1
)

// PrepareForOCR runs the crop through the legibility chain: grayscale,
// edge-preserving smoothing, inverted adaptive binarization, a closing pass
// and a light dilation. Characters come out white on black, which is what the
// OCR engine reads best.
func PrepareForOCR(src image.Image) *image.Gray {
	gray := Grayscale(src)
	smoothed := bilateralFilter(gray, bilateralRadius, bilateralSigmaColor, bilateralSigmaSpace)
	bin := adaptiveThresholdInv(smoothed, threshBlockSize, threshOffset)
	bin = erode(dilate(bin, closeKernelSize), closeKernelSize)
	return dilate(bin, dilateKernelSize)
}

func Grayscale(src image.Image) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	draw.Draw(dst, bounds, src, bounds.Min, draw.Src)
	return dst
}

// CropRegion copies a rectangle of the frame into its own image.
func CropRegion(frame image.Image, region image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(dst, dst.Bounds(), frame, region.Min, draw.Src)
	return dst
}

// bilateralFilter smooths noise while keeping character edges sharp. Weights
// combine a spatial gaussian with an intensity-difference gaussian.
func bilateralFilter(src *image.Gray, radius int, sigmaColor, sigmaSpace float64) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)

	size := 2*radius + 1
	spatial := make([]float64, size*size)
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			d2 := float64(dx*dx + dy*dy)
			spatial[(dy+radius)*size+(dx+radius)] = math.Exp(-d2 / (2 * sigmaSpace * sigmaSpace))
		}
	}
	var intensity [256]float64
	for i := range intensity {
		intensity[i] = math.Exp(-float64(i*i) / (2 * sigmaColor * sigmaColor))
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			center := src.GrayAt(x, y).Y
			var sum, norm float64
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					cx, cy := clamp(x+dx, bounds.Min.X, bounds.Max.X-1), clamp(y+dy, bounds.Min.Y, bounds.Max.Y-1)
					v := src.GrayAt(cx, cy).Y
					diff := int(center) - int(v)
					if diff < 0 {
						diff = -diff
					}
					w := spatial[(dy+radius)*size+(dx+radius)] * intensity[diff]
					sum += w * float64(v)
					norm += w
				}
			}
			dst.SetGray(x, y, color.Gray{Y: uint8(sum/norm + 0.5)})
		}
	}
	return dst
}

// adaptiveThresholdInv binarizes against the local mean over a block window,
// inverted so text pixels end up white. Uses an integral image so the block
// size does not dominate the cost.
func adaptiveThresholdInv(src *image.Gray, block, offset int) *image.Gray {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(bounds)
	if w == 0 || h == 0 {
		return dst
	}

	integral := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			integral[(y+1)*(w+1)+(x+1)] = integral[y*(w+1)+(x+1)] + rowSum
		}
	}

	half := block / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := clamp(x-half, 0, w-1), clamp(y-half, 0, h-1)
			x1, y1 := clamp(x+half, 0, w-1), clamp(y+half, 0, h-1)
			area := uint64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[(y1+1)*(w+1)+(x1+1)] - integral[y0*(w+1)+(x1+1)] -
				integral[(y1+1)*(w+1)+x0] + integral[y0*(w+1)+x0]
			mean := float64(sum) / float64(area)

			v := src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y
			if float64(v) > mean-float64(offset) {
				dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: 0})
			} else {
				dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: 255})
			}
		}
	}
	return dst
}

func dilate(src *image.Gray, kernel int) *image.Gray {
	return morph(src, kernel, func(a, b uint8) bool { return a > b })
}

func erode(src *image.Gray, kernel int) *image.Gray {
	return morph(src, kernel, func(a, b uint8) bool { return a < b })
}

func morph(src *image.Gray, kernel int, better func(a, b uint8) bool) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	if kernel <= 1 {
		copy(dst.Pix, src.Pix)
		return dst
	}

	anchor := kernel / 2
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			best := src.GrayAt(x, y).Y
			for dy := -anchor; dy < kernel-anchor; dy++ {
				for dx := -anchor; dx < kernel-anchor; dx++ {
					cx, cy := clamp(x+dx, bounds.Min.X, bounds.Max.X-1), clamp(y+dy, bounds.Min.Y, bounds.Max.Y-1)
					if v := src.GrayAt(cx, cy).Y; better(v, best) {
						best = v
					}
				}
			}
			dst.SetGray(x, y, color.Gray{Y: best})
		}
	}
	return dst
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
