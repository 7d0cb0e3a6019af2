package ocr

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Preprocess 裁剪到 region 并转为灰度；region 为空时处理整幅图像
// region 超出图像时裁剪到图像范围内，完全不相交时报错
func Preprocess(img image.Image, region image.Rectangle, gray bool) (image.Image, error) {
	src, err := gocv.ImageToMatRGBA(img)
	if err != nil {
		return nil, fmt.Errorf("图像转换失败: %w", err)
	}
	defer src.Close()

	full := image.Rect(0, 0, src.Cols(), src.Rows())
	crop := full
	if !region.Empty() {
		crop = region.Intersect(full)
		if crop.Empty() {
			return nil, fmt.Errorf("裁剪区域 %v 不在图像范围 %v 内", region, full)
		}
	}

	roi := src.Region(crop)
	defer roi.Close()

	if !gray {
		out := roi.Clone()
		defer out.Close()
		return out.ToImage()
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.CvtColor(roi, &dst, gocv.ColorRGBAToGray)
	return dst.ToImage()
}
